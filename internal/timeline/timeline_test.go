package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/cbminer/internal/model"
)

func mustWindow(t *testing.T, start, end, kind string) model.ActivityWindow {
	t.Helper()
	w, err := ParseWindow(start, end, kind)
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return w
}

func ev(clock, name string) string {
	return "2019-03-01 " + clock + ".000000#" + name + "#msg"
}

func TestAnalyzeSingleInterval(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	res := Analyze([]string{ev("10:00:00", "focus"), ev("10:04:00", "blur")}, w, IdleThreshold)
	if res.Record.TotalInteraction != 4*time.Minute || res.Record.FocusedInteraction != 4*time.Minute {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
	if res.Sessions != 1 || res.Aborted {
		t.Fatalf("unexpected result flags: %+v", res)
	}
}

func TestAnalyzeIdleGapExcludedFromFocus(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	lines := []string{
		ev("10:00:00", "focus"),
		ev("10:07:00", "change"),
		ev("10:08:00", "blur"),
	}
	res := Analyze(lines, w, IdleThreshold)
	if res.Record.TotalInteraction != 8*time.Minute {
		t.Fatalf("total = %v, want 8m", res.Record.TotalInteraction)
	}
	if res.Record.FocusedInteraction != time.Minute {
		t.Fatalf("focused = %v, want 1m", res.Record.FocusedInteraction)
	}
}

func TestAnalyzeGapAtThresholdCounts(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	res := Analyze([]string{ev("10:00:00", "focus"), ev("10:05:00", "blur")}, w, IdleThreshold)
	if res.Record.FocusedInteraction != 5*time.Minute {
		t.Fatalf("gap equal to threshold must count as focused, got %v", res.Record.FocusedInteraction)
	}
}

func TestAnalyzeAbortsAfterWindowEnd(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 10:30", "homework")
	lines := []string{
		ev("10:00:00", "focus"),
		ev("10:02:00", "blur"),
		ev("10:20:00", "focus"),
		ev("10:31:00", "change"),
		ev("10:32:00", "blur"),
		ev("10:40:00", "focus"),
		ev("10:41:00", "blur"),
	}
	res := Analyze(lines, w, IdleThreshold)
	if !res.Aborted {
		t.Fatalf("expected scan to abort")
	}
	if res.Record.TotalInteraction != 2*time.Minute || res.Record.FocusedInteraction != 2*time.Minute {
		t.Fatalf("events after window end contributed: %+v", res.Record)
	}
	if res.Sessions != 2 {
		t.Fatalf("expected 2 opened sessions, got %d", res.Sessions)
	}
}

func TestAnalyzeIgnoresFocusBeforeWindow(t *testing.T) {
	w := mustWindow(t, "2019-03-01 10:00", "2019-03-01 12:00", "homework")
	lines := []string{
		ev("09:50:00", "focus"),
		ev("09:51:00", "change"),
		ev("09:59:00", "blur"),
		ev("10:10:00", "focus"),
		ev("10:11:00", "blur"),
		ev("10:12:00", "change"),
		ev("10:13:00", "focus"),
		ev("10:13:30", "blur"),
	}
	res := Analyze(lines, w, IdleThreshold)
	want := time.Minute + 30*time.Second
	if res.Record.TotalInteraction != want || res.Record.FocusedInteraction != want {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
}

func TestAnalyzeExamWindowExtension(t *testing.T) {
	lines := []string{ev("08:00:00", "focus"), ev("08:03:00", "blur")}

	homework := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	if res := Analyze(lines, homework, IdleThreshold); res.Record.TotalInteraction != 0 {
		t.Fatalf("focus before window must not open an interval: %+v", res.Record)
	}

	exam := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "exam")
	if res := Analyze(lines, exam, IdleThreshold); res.Record.TotalInteraction != 3*time.Minute {
		t.Fatalf("exam window should include 08:00, got %+v", res.Record)
	}
}

func TestAnalyzeUnparseableLines(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	lines := []string{
		"garbage",
		ev("10:00:00", "focus"),
		"2019-13-45 99:00:00.000000#blur#bad date",
		"",
		ev("10:03:00", "blur"),
	}
	res := Analyze(lines, w, IdleThreshold)
	if res.Record.TotalInteraction != 3*time.Minute {
		t.Fatalf("bad lines must be skipped, got %+v", res.Record)
	}
	if len(res.ParseErrors) != 3 {
		t.Fatalf("expected 3 parse errors, got %d", len(res.ParseErrors))
	}
	if res.ParseErrors[0].Line != 1 || res.ParseErrors[1].Line != 3 || res.ParseErrors[2].Line != 4 {
		t.Fatalf("unexpected error lines: %v, %v, %v", res.ParseErrors[0], res.ParseErrors[1], res.ParseErrors[2])
	}
	if res.ParseErrors[2].Err != nil || res.ParseErrors[2].Value != "" {
		t.Fatalf("blank line must report a missing separator, got %v", res.ParseErrors[2])
	}
}

func TestAnalyzeNoFocus(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "homework")
	res := Analyze([]string{ev("10:00:00", "change"), ev("10:01:00", "blur")}, w, IdleThreshold)
	if res.Record != (model.TimelineRecord{}) || res.Sessions != 0 {
		t.Fatalf("expected zero record, got %+v", res)
	}
}

func TestAnalyzeFocusedNeverExceedsTotal(t *testing.T) {
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 18:00", "homework")
	lines := []string{ev("10:00:00", "focus")}
	clock := time.Date(2019, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i < 40; i++ {
		clock = clock.Add(time.Duration(i%9) * time.Minute)
		lines = append(lines, clock.Format(TimestampLayout)+"#change#x")
	}
	res := Analyze(lines, w, IdleThreshold)
	if res.Record.FocusedInteraction > res.Record.TotalInteraction {
		t.Fatalf("focused %v exceeds total %v", res.Record.FocusedInteraction, res.Record.TotalInteraction)
	}
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent("2019-03-01 10:00:00.123456#focus#hello#world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.At.Nanosecond() != 123456000 || e.Name != "focus" || e.Message != "hello#world" {
		t.Fatalf("unexpected event: %+v", e)
	}
	_, err = ParseEvent("no separator")
	var perr *TimestampParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected TimestampParseError, got %v", err)
	}
}

func TestParseWindow(t *testing.T) {
	if _, err := ParseWindow("2019-03-01 11:00", "2019-03-01 09:00", ""); err == nil {
		t.Fatalf("expected inverted window to fail")
	}
	if _, err := ParseWindow("yesterday", "2019-03-01 09:00", ""); err == nil {
		t.Fatalf("expected bad start to fail")
	}
	w := mustWindow(t, "2019-03-01 09:00", "2019-03-01 11:00", "exam")
	start, end := w.Effective()
	if !start.Equal(w.Start.Add(-2*time.Hour)) || !end.Equal(w.End.Add(2*time.Hour)) {
		t.Fatalf("unexpected effective window: %v %v", start, end)
	}
}
