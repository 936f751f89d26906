package stats

import (
	"strings"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	cols := []column{textCol("Error"), numCol("Occurrences"), numCol("Attempts")}
	rows := [][]string{
		{"ValueError", "97", "12"},
		{"NameError", "8", "3"},
	}

	lines := formatTable(cols, rows, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Error      Occurrences Attempts" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "ValueError          97       12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "NameError            8        3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]column{textCol("Term"), numCol("N")}, [][]string{{"学期", "1"}, {"ab", "22"}}, false)
	if lines[1] != "学期  1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   22" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}

func TestFormatTableStylesOnlyHeader(t *testing.T) {
	cols := []column{textCol("Kind"), numCol("Count")}
	rows := [][]string{{"missing-timeline", "12"}, {"timeout", "1"}}
	plain := formatTable(cols, rows, false)
	styled := formatTable(cols, rows, true)
	if len(styled) != len(plain) {
		t.Fatalf("expected %d lines, got %d", len(plain), len(styled))
	}
	if !strings.Contains(styled[0], "Kind") || !strings.Contains(styled[0], "Count") {
		t.Fatalf("styled header lost its titles: %q", styled[0])
	}
	for i := 1; i < len(plain); i++ {
		if styled[i] != plain[i] {
			t.Fatalf("row %d changed by styling: %q != %q", i, styled[i], plain[i])
		}
	}
}

func TestFormatTableIgnoresExtraCells(t *testing.T) {
	lines := formatTable([]column{textCol("A")}, [][]string{{"x", "extra"}}, false)
	if lines[1] != "x" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}
