package pylex

import (
	"errors"
	"reflect"
	"testing"
)

type tok struct {
	kind Kind
	text string
}

func simplify(tokens []Token) []tok {
	out := make([]tok, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tok{t.Kind, t.Text})
	}
	return out
}

func TestTokenizeSimpleBlock(t *testing.T) {
	tokens, err := Tokenize("if x==1:\n    y+=2\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []tok{
		{Name, "if"}, {Name, "x"}, {Op, "=="}, {Number, "1"}, {Op, ":"}, {Newline, "\n"},
		{Indent, "    "}, {Name, "y"}, {Op, "+="}, {Number, "2"}, {Newline, "\n"},
		{Dedent, ""}, {EndMarker, ""},
	}
	if got := simplify(tokens); !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v\nwant %v", got, want)
	}
	if tokens[2].Op != EqEqual || tokens[8].Op != PlusEqual {
		t.Fatalf("unexpected op codes: %v %v", tokens[2].Op, tokens[8].Op)
	}
	if tokens[7].Line != 2 || tokens[7].Col != 4 {
		t.Fatalf("unexpected position for y: %d:%d", tokens[7].Line, tokens[7].Col)
	}
}

func TestTokenizeOperatorsLongestMatch(t *testing.T) {
	tokens, err := Tokenize("a **= b // c >>= d != e ... f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []OpCode
	for _, tk := range tokens {
		if tk.Kind == Op {
			ops = append(ops, tk.Op)
		}
	}
	want := []OpCode{DoubleStarEqual, DoubleSlash, RightShiftEqual, NotEqual, Ellipsis}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
}

func TestTokenizeLiterals(t *testing.T) {
	src := "x = [0x1F, 0o17, 0b101, 1_000, 3.14, .5, 1e-3, 2j]\ns = rb'\\x00' + f\"{x}\" + 'it\\'s'\n"
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var numbers, strs []string
	for _, tk := range tokens {
		switch tk.Kind {
		case Number:
			numbers = append(numbers, tk.Text)
		case String:
			strs = append(strs, tk.Text)
		}
	}
	wantNumbers := []string{"0x1F", "0o17", "0b101", "1_000", "3.14", ".5", "1e-3", "2j"}
	if !reflect.DeepEqual(numbers, wantNumbers) {
		t.Fatalf("numbers = %v, want %v", numbers, wantNumbers)
	}
	wantStrings := []string{`rb'\x00'`, `f"{x}"`, `'it\'s'`}
	if !reflect.DeepEqual(strs, wantStrings) {
		t.Fatalf("strings = %v, want %v", strs, wantStrings)
	}
}

func TestTokenizeMultilineString(t *testing.T) {
	src := "doc = \"\"\"first\nsecond\"\"\"\nprint(doc)\n"
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	str := tokens[2]
	if str.Kind != String || str.Text != "\"\"\"first\nsecond\"\"\"" {
		t.Fatalf("unexpected string token: %+v", str)
	}
	if str.Line != 1 || str.EndLine != 2 {
		t.Fatalf("unexpected string span: %d-%d", str.Line, str.EndLine)
	}
	if tokens[3].Kind != Newline || tokens[4].Text != "print" {
		t.Fatalf("unexpected tokens after string: %v", simplify(tokens[3:]))
	}
}

func TestTokenizeBracketsAndComments(t *testing.T) {
	src := "# header\n\nvalues = (\n    1,  # one\n    2,\n)\n"
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []tok{
		{Comment, "# header"}, {NL, "\n"}, {NL, "\n"},
		{Name, "values"}, {Op, "="}, {Op, "("}, {NL, "\n"},
		{Number, "1"}, {Op, ","}, {Comment, "# one"}, {NL, "\n"},
		{Number, "2"}, {Op, ","}, {NL, "\n"},
		{Op, ")"}, {Newline, "\n"},
		{EndMarker, ""},
	}
	if got := simplify(tokens); !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v\nwant %v", got, want)
	}
}

func TestTokenizeMissingTrailingNewline(t *testing.T) {
	tokens, err := Tokenize("def f():\n\treturn 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := len(tokens)
	if tokens[n-3].Kind != Newline || tokens[n-3].Text != "" || tokens[n-2].Kind != Dedent || tokens[n-1].Kind != EndMarker {
		t.Fatalf("unexpected tail: %v", simplify(tokens[n-3:]))
	}
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{"unterminated string", "x = 'abc\n", 1},
		{"eof in triple string", "x = '''abc\n", 1},
		{"eof in brackets", "x = (1,\n2\n", 2},
		{"bad dedent", "if x:\n        y\n    z\n", 3},
	}
	for _, tc := range cases {
		_, err := Tokenize(tc.src)
		var tokErr *TokenizationError
		if !errors.As(err, &tokErr) {
			t.Fatalf("%s: expected TokenizationError, got %v", tc.name, err)
		}
		if tokErr.Line != tc.line {
			t.Fatalf("%s: error line = %d, want %d", tc.name, tokErr.Line, tc.line)
		}
	}
}

func TestTokenizeUnknownCharacter(t *testing.T) {
	tokens, err := Tokenize("a ? b\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[1].Kind != ErrorToken || tokens[1].Text != "?" {
		t.Fatalf("expected error token, got %+v", tokens[1])
	}
}

func TestLineCount(t *testing.T) {
	cases := map[string]int{
		"":           0,
		"a\n":        1,
		"a\nb":       2,
		"a\n\n\nb\n": 4,
	}
	for src, want := range cases {
		if got := LineCount(src); got != want {
			t.Fatalf("LineCount(%q) = %d, want %d", src, got, want)
		}
	}
}
