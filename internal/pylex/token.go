// Package pylex tokenizes Python source into classified tokens.
package pylex

import "fmt"

// Kind is the coarse class of a token.
type Kind int

const (
	EndMarker Kind = iota
	Name
	Number
	String
	Newline
	Indent
	Dedent
	Op
	Comment
	NL
	ErrorToken
)

var kindNames = [...]string{
	EndMarker:  "ENDMARKER",
	Name:       "NAME",
	Number:     "NUMBER",
	String:     "STRING",
	Newline:    "NEWLINE",
	Indent:     "INDENT",
	Dedent:     "DEDENT",
	Op:         "OP",
	Comment:    "COMMENT",
	NL:         "NL",
	ErrorToken: "ERRORTOKEN",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// OpCode is the exact type of an operator or delimiter token.
// Codes follow CPython's token numbering, so operator families occupy
// contiguous ranges that can be tested with ordered comparisons.
type OpCode int

const (
	NoOp   OpCode = 0
	LPar   OpCode = iota + 6
	RPar
	LSqb
	RSqb
	Colon
	Comma
	Semi
	Plus
	Minus
	Star
	Slash
	VBar
	Amper
	Less
	Greater
	Equal
	Dot
	Percent
	LBrace
	RBrace
	EqEqual
	NotEqual
	LessEqual
	GreaterEqual
	Tilde
	Circumflex
	LeftShift
	RightShift
	DoubleStar
	PlusEqual
	MinEqual
	StarEqual
	SlashEqual
	PercentEqual
	AmperEqual
	VBarEqual
	CircumflexEqual
	LeftShiftEqual
	RightShiftEqual
	DoubleStarEqual
	DoubleSlash
	DoubleSlashEqual
	At
	AtEqual
	RArrow
	Ellipsis
	ColonEqual
)

var operators = map[string]OpCode{
	"(":   LPar,
	")":   RPar,
	"[":   LSqb,
	"]":   RSqb,
	":":   Colon,
	",":   Comma,
	";":   Semi,
	"+":   Plus,
	"-":   Minus,
	"*":   Star,
	"/":   Slash,
	"|":   VBar,
	"&":   Amper,
	"<":   Less,
	">":   Greater,
	"=":   Equal,
	".":   Dot,
	"%":   Percent,
	"{":   LBrace,
	"}":   RBrace,
	"==":  EqEqual,
	"!=":  NotEqual,
	"<=":  LessEqual,
	">=":  GreaterEqual,
	"~":   Tilde,
	"^":   Circumflex,
	"<<":  LeftShift,
	">>":  RightShift,
	"**":  DoubleStar,
	"+=":  PlusEqual,
	"-=":  MinEqual,
	"*=":  StarEqual,
	"/=":  SlashEqual,
	"%=":  PercentEqual,
	"&=":  AmperEqual,
	"|=":  VBarEqual,
	"^=":  CircumflexEqual,
	"<<=": LeftShiftEqual,
	">>=": RightShiftEqual,
	"**=": DoubleStarEqual,
	"//":  DoubleSlash,
	"//=": DoubleSlashEqual,
	"@":   At,
	"@=":  AtEqual,
	"->":  RArrow,
	"...": Ellipsis,
	":=":  ColonEqual,
}

// LookupOp returns the code of an operator string.
func LookupOp(s string) (OpCode, bool) {
	op, ok := operators[s]
	return op, ok
}

// Token is one lexical token. Line is 1-based, Col is a 0-based rune offset.
type Token struct {
	Kind    Kind
	Op      OpCode
	Text    string
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

// TokenizationError reports source that cannot be tokenized.
type TokenizationError struct {
	Line int
	Col  int
	Msg  string
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenize: line %d, col %d: %s", e.Line, e.Col, e.Msg)
}
