package pylex

import (
	"strings"
	"unicode"
)

const tabSize = 8

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

type pendingString struct {
	line   int
	col    int
	quote  rune
	triple bool
	text   strings.Builder
}

type lexer struct {
	tokens    []Token
	indents   []int
	parens    int
	continued bool
	str       *pendingString
}

// Tokenize splits src into tokens, ending with an EndMarker. On failure it
// returns the tokens produced so far and a *TokenizationError.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{indents: []int{0}}
	lines := SplitLines(src)
	for i, raw := range lines {
		if err := lx.line(i+1, []rune(raw)); err != nil {
			return lx.tokens, err
		}
	}
	if err := lx.finish(len(lines)); err != nil {
		return lx.tokens, err
	}
	return lx.tokens, nil
}

// SplitLines splits src into physical lines, keeping line terminators.
func SplitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// LineCount returns the number of physical lines in src.
func LineCount(src string) int {
	return len(SplitLines(src))
}

func (lx *lexer) emit(kind Kind, op OpCode, text string, line, col, endLine, endCol int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:    kind,
		Op:      op,
		Text:    text,
		Line:    line,
		Col:     col,
		EndLine: endLine,
		EndCol:  endCol,
	})
}

func (lx *lexer) line(lineNo int, line []rune) error {
	pos := 0
	switch {
	case lx.str != nil:
		end, closed, err := scanString(line, 0, lx.str.quote, lx.str.triple)
		if err != nil {
			return &TokenizationError{Line: lx.str.line, Col: lx.str.col, Msg: err.Error()}
		}
		if !closed {
			lx.str.text.WriteString(string(line))
			return nil
		}
		lx.str.text.WriteString(string(line[:end]))
		lx.emit(String, NoOp, lx.str.text.String(), lx.str.line, lx.str.col, lineNo, end)
		lx.str = nil
		pos = end
	case lx.parens == 0 && !lx.continued:
		col := 0
	measure:
		for ; pos < len(line); pos++ {
			switch line[pos] {
			case ' ':
				col++
			case '\t':
				col = (col/tabSize + 1) * tabSize
			case '\f':
				col = 0
			default:
				break measure
			}
		}
		if pos == len(line) {
			return nil
		}
		if c := line[pos]; c == '#' || c == '\r' || c == '\n' {
			return lx.blankLine(lineNo, line, pos)
		}
		if err := lx.indent(lineNo, line, pos, col); err != nil {
			return err
		}
	default:
		lx.continued = false
	}
	return lx.scan(lineNo, line, pos)
}

// blankLine handles lines holding only whitespace or a comment; they never
// change indentation.
func (lx *lexer) blankLine(lineNo int, line []rune, pos int) error {
	if line[pos] == '#' {
		end := contentEnd(line)
		lx.emit(Comment, NoOp, string(line[pos:end]), lineNo, pos, lineNo, end)
		pos = end
	}
	if pos < len(line) {
		lx.emit(NL, NoOp, string(line[pos:]), lineNo, pos, lineNo, len(line))
	}
	return nil
}

func (lx *lexer) indent(lineNo int, line []rune, pos, col int) error {
	top := lx.indents[len(lx.indents)-1]
	if col > top {
		lx.indents = append(lx.indents, col)
		lx.emit(Indent, NoOp, string(line[:pos]), lineNo, 0, lineNo, pos)
		return nil
	}
	for col < lx.indents[len(lx.indents)-1] {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(Dedent, NoOp, "", lineNo, pos, lineNo, pos)
	}
	if col != lx.indents[len(lx.indents)-1] {
		return &TokenizationError{Line: lineNo, Col: pos, Msg: "unindent does not match any outer indentation level"}
	}
	return nil
}

func (lx *lexer) scan(lineNo int, line []rune, pos int) error {
	for pos < len(line) {
		c := line[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			pos++
		case c == '#':
			end := contentEnd(line)
			lx.emit(Comment, NoOp, string(line[pos:end]), lineNo, pos, lineNo, end)
			pos = end
		case c == '\r' || c == '\n':
			kind := Newline
			if lx.parens > 0 {
				kind = NL
			}
			lx.emit(kind, NoOp, string(line[pos:]), lineNo, pos, lineNo, len(line))
			return nil
		case c == '\\':
			if atLineEnd(line, pos+1) {
				lx.continued = true
				return nil
			}
			lx.emit(ErrorToken, NoOp, "\\", lineNo, pos, lineNo, pos+1)
			pos++
		case isDigit(c) || (c == '.' && pos+1 < len(line) && isDigit(line[pos+1])):
			end := scanNumber(line, pos)
			lx.emit(Number, NoOp, string(line[pos:end]), lineNo, pos, lineNo, end)
			pos = end
		case c == '\'' || c == '"':
			end, err := lx.stringAt(lineNo, line, pos, pos)
			if err != nil {
				return err
			}
			pos = end
		case isIdentStart(c):
			end := pos + 1
			for end < len(line) && isIdentChar(line[end]) {
				end++
			}
			word := string(line[pos:end])
			if end < len(line) && (line[end] == '\'' || line[end] == '"') && stringPrefixes[strings.ToLower(word)] {
				next, err := lx.stringAt(lineNo, line, pos, end)
				if err != nil {
					return err
				}
				pos = next
				continue
			}
			lx.emit(Name, NoOp, word, lineNo, pos, lineNo, end)
			pos = end
		default:
			op, n := matchOp(line, pos)
			if n == 0 {
				lx.emit(ErrorToken, NoOp, string(c), lineNo, pos, lineNo, pos+1)
				pos++
				continue
			}
			switch op {
			case LPar, LSqb, LBrace:
				lx.parens++
			case RPar, RSqb, RBrace:
				if lx.parens > 0 {
					lx.parens--
				}
			}
			lx.emit(Op, op, string(line[pos:pos+n]), lineNo, pos, lineNo, pos+n)
			pos += n
		}
	}
	return nil
}

// stringAt lexes a string literal whose prefix starts at start and whose
// opening quote is at quote. It returns the position after the literal.
func (lx *lexer) stringAt(lineNo int, line []rune, start, quote int) (int, error) {
	q := line[quote]
	triple := quote+2 < len(line) && line[quote+1] == q && line[quote+2] == q
	body := quote + 1
	if triple {
		body = quote + 3
	}
	end, closed, err := scanString(line, body, q, triple)
	if err != nil {
		return 0, &TokenizationError{Line: lineNo, Col: start, Msg: err.Error()}
	}
	if closed {
		lx.emit(String, NoOp, string(line[start:end]), lineNo, start, lineNo, end)
		return end, nil
	}
	lx.str = &pendingString{line: lineNo, col: start, quote: q, triple: triple}
	lx.str.text.WriteString(string(line[start:]))
	return len(line), nil
}

type stringError string

func (e stringError) Error() string { return string(e) }

const errUnterminated = stringError("unterminated string literal")

// scanString looks for the closing quote from pos. closed is false when the
// literal continues on the next line.
func scanString(line []rune, pos int, q rune, triple bool) (int, bool, error) {
	for pos < len(line) {
		c := line[pos]
		switch {
		case c == '\\':
			if atLineEnd(line, pos+1) {
				return len(line), false, nil
			}
			pos += 2
			continue
		case c == q:
			if !triple {
				return pos + 1, true, nil
			}
			if pos+2 < len(line) && line[pos+1] == q && line[pos+2] == q {
				return pos + 3, true, nil
			}
		case (c == '\n' || c == '\r') && !triple:
			return pos, false, errUnterminated
		}
		pos++
	}
	if triple {
		return len(line), false, nil
	}
	return pos, false, errUnterminated
}

func (lx *lexer) finish(lineCount int) error {
	if lx.str != nil {
		msg := string(errUnterminated)
		if lx.str.triple {
			msg = "EOF in multi-line string"
		}
		return &TokenizationError{Line: lx.str.line, Col: lx.str.col, Msg: msg}
	}
	if lx.parens > 0 || lx.continued {
		return &TokenizationError{Line: lineCount, Col: 0, Msg: "EOF in multi-line statement"}
	}
	if n := len(lx.tokens); n > 0 {
		last := lx.tokens[n-1]
		if last.Kind != Newline && last.Kind != NL {
			lx.emit(Newline, NoOp, "", last.EndLine, last.EndCol, last.EndLine, last.EndCol+1)
		}
	}
	end := lineCount + 1
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(Dedent, NoOp, "", end, 0, end, 0)
	}
	lx.emit(EndMarker, NoOp, "", end, 0, end, 0)
	return nil
}

func matchOp(line []rune, pos int) (OpCode, int) {
	for n := 3; n >= 1; n-- {
		if pos+n > len(line) {
			continue
		}
		if op, ok := operators[string(line[pos:pos+n])]; ok {
			return op, n
		}
	}
	return NoOp, 0
}

func scanNumber(line []rune, pos int) int {
	n := len(line)
	if line[pos] == '0' && pos+1 < n {
		switch line[pos+1] {
		case 'x', 'X':
			return scanWhile(line, pos+2, isHexDigit)
		case 'o', 'O':
			return scanWhile(line, pos+2, isOctDigit)
		case 'b', 'B':
			return scanWhile(line, pos+2, isBinDigit)
		}
	}
	end := scanWhile(line, pos, isDecDigit)
	if end < n && line[end] == '.' {
		end = scanWhile(line, end+1, isDecDigit)
	}
	if end < n && (line[end] == 'e' || line[end] == 'E') {
		e := end + 1
		if e < n && (line[e] == '+' || line[e] == '-') {
			e++
		}
		if e < n && isDigit(line[e]) {
			end = scanWhile(line, e, isDecDigit)
		}
	}
	if end < n && (line[end] == 'j' || line[end] == 'J') {
		end++
	}
	return end
}

func scanWhile(line []rune, pos int, ok func(rune) bool) int {
	for pos < len(line) && ok(line[pos]) {
		pos++
	}
	return pos
}

func contentEnd(line []rune) int {
	end := len(line)
	for end > 0 && (line[end-1] == '\n' || line[end-1] == '\r') {
		end--
	}
	return end
}

func atLineEnd(line []rune, pos int) bool {
	return pos >= len(line) || line[pos] == '\n' || line[pos] == '\r'
}

func isDigit(r rune) bool    { return r >= '0' && r <= '9' }
func isDecDigit(r rune) bool { return isDigit(r) || r == '_' }
func isOctDigit(r rune) bool { return (r >= '0' && r <= '7') || r == '_' }
func isBinDigit(r rune) bool { return r == '0' || r == '1' || r == '_' }

func isHexDigit(r rune) bool {
	return isDecDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
