// Package features computes lexical token statistics of Python snippets.
package features

import (
	"fmt"

	"github.com/verte-zerg/cbminer/internal/pylex"
)

// Error wraps a tokenization failure of one snippet.
type Error struct {
	Err *pylex.TokenizationError
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract features: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type counter struct {
	v *Vector

	keywords    map[string]struct{}
	logical     map[string]struct{}
	builtins    map[string]struct{}
	types       map[string]struct{}
	assignments map[string]struct{}
	arithmetic  map[string]struct{}
	comparisons map[string]struct{}
	bitwise     map[string]struct{}
	identifiers map[string]struct{}

	perLine  []int
	lastLine int
}

// Extract tokenizes source and fills a Vector in one pass. On tokenization
// failure it returns nil and an *Error.
func Extract(source string) (*Vector, error) {
	tokens, err := pylex.Tokenize(source)
	if err != nil {
		if tokErr, ok := err.(*pylex.TokenizationError); ok {
			return nil, &Error{Err: tokErr}
		}
		return nil, err
	}

	c := &counter{
		v:           &Vector{},
		keywords:    map[string]struct{}{},
		logical:     map[string]struct{}{},
		builtins:    map[string]struct{}{},
		types:       map[string]struct{}{},
		assignments: map[string]struct{}{},
		arithmetic:  map[string]struct{}{},
		comparisons: map[string]struct{}{},
		bitwise:     map[string]struct{}{},
		identifiers: map[string]struct{}{},
	}
	for _, tok := range tokens {
		c.add(tok)
	}
	c.finish(pylex.LineCount(source))
	return c.v, nil
}

func (c *counter) add(tok pylex.Token) {
	switch {
	case tok.Kind == pylex.Name && pylex.IsKeyword(tok.Text):
		c.keyword(tok)
	case tok.Kind == pylex.Name && has(builtins, tok.Text):
		c.builtin(tok.Text)
	case tok.Kind == pylex.Op:
		c.operator(tok)
	case tok.Kind == pylex.Number:
		c.v.Numbers++
	case tok.Kind == pylex.String:
		c.v.Strings++
	case tok.Kind == pylex.Name:
		c.identifier(tok)
	}
}

func (c *counter) keyword(tok pylex.Token) {
	v := c.v
	v.Keywords++
	c.keywords[tok.Text] = struct{}{}
	switch tok.Text {
	case "if":
		v.Conditionals++
		v.Ifs++
	case "else":
		v.Conditionals++
		v.Elses++
	case "elif":
		v.Conditionals++
		v.Elifs++
	case "while":
		v.Loops++
		v.Whiles++
	case "for":
		v.Loops++
		v.Fors++
	case "and":
		v.LogicalOps++
		v.AndOps++
		c.logical[tok.Text] = struct{}{}
	case "or":
		v.LogicalOps++
		v.OrOps++
		c.logical[tok.Text] = struct{}{}
	case "not":
		v.LogicalOps++
		v.NotOps++
		c.logical[tok.Text] = struct{}{}
	case "True", "False":
		v.Booleans++
	case "break":
		v.Breaks++
	case "continue":
		v.Continues++
	case "is":
		v.IdentityOps++
	case "in":
		v.MembershipOps++
	case "lambda":
		v.Lambdas++
	default:
		if tok.Col == 0 && has(importKeywords, tok.Text) {
			v.Imports++
		}
	}
}

func (c *counter) builtin(name string) {
	v := c.v
	v.Builtins++
	c.builtins[name] = struct{}{}
	switch {
	case has(typeNames, name):
		v.TypeCalls++
		c.types[name] = struct{}{}
	case name == "print":
		v.Prints++
	case name == "input":
		v.Inputs++
	case name == "len":
		v.Lens++
	}
}

func isAssignment(op pylex.OpCode) bool {
	return op == pylex.Equal ||
		(op >= pylex.PlusEqual && op <= pylex.DoubleStarEqual) ||
		op == pylex.DoubleSlashEqual
}

func isArithmetic(op pylex.OpCode) bool {
	return (op >= pylex.Plus && op <= pylex.Slash) ||
		op == pylex.Percent || op == pylex.DoubleStar || op == pylex.DoubleSlash
}

func isComparison(op pylex.OpCode) bool {
	return (op >= pylex.EqEqual && op <= pylex.GreaterEqual) ||
		op == pylex.Less || op == pylex.Greater
}

func isBitwise(op pylex.OpCode) bool {
	return op == pylex.VBar || op == pylex.Amper ||
		(op >= pylex.Tilde && op <= pylex.RightShift)
}

// augmentedBase maps an augmented assignment to the operator it applies.
var augmentedBase = map[pylex.OpCode]pylex.OpCode{
	pylex.PlusEqual:        pylex.Plus,
	pylex.MinEqual:         pylex.Minus,
	pylex.StarEqual:        pylex.Star,
	pylex.SlashEqual:       pylex.Slash,
	pylex.PercentEqual:     pylex.Percent,
	pylex.DoubleSlashEqual: pylex.DoubleSlash,
	pylex.DoubleStarEqual:  pylex.DoubleStar,
	pylex.AmperEqual:       pylex.Amper,
	pylex.VBarEqual:        pylex.VBar,
	pylex.CircumflexEqual:  pylex.Circumflex,
	pylex.LeftShiftEqual:   pylex.LeftShift,
	pylex.RightShiftEqual:  pylex.RightShift,
}

var opText = map[pylex.OpCode]string{
	pylex.Plus:        "+",
	pylex.Minus:       "-",
	pylex.Star:        "*",
	pylex.Slash:       "/",
	pylex.Percent:     "%",
	pylex.DoubleSlash: "//",
	pylex.DoubleStar:  "**",
	pylex.Amper:       "&",
	pylex.VBar:        "|",
	pylex.Circumflex:  "^",
	pylex.LeftShift:   "<<",
	pylex.RightShift:  ">>",
}

func (c *counter) operator(tok pylex.Token) {
	v := c.v
	op := tok.Op
	switch {
	case isAssignment(op):
		v.Assignments++
		c.assignments[tok.Text] = struct{}{}
		if base, ok := augmentedBase[op]; ok {
			c.countOp(base, opText[base])
		}
	case isArithmetic(op), isComparison(op), isBitwise(op):
		c.countOp(op, tok.Text)
	case op == pylex.LPar:
		v.LPar++
	case op == pylex.RPar:
		v.RPar++
	case op == pylex.LSqb:
		v.LSqb++
	case op == pylex.RSqb:
		v.RSqb++
	case op == pylex.LBrace:
		v.LBrace++
	case op == pylex.RBrace:
		v.RBrace++
	case op == pylex.Comma:
		v.Commas++
	case op == pylex.Colon:
		v.Colons++
	case op == pylex.Dot:
		v.Dots++
	}
}

// countOp increments the group and specific counters of an arithmetic,
// comparison or bitwise operator.
func (c *counter) countOp(op pylex.OpCode, text string) {
	v := c.v
	switch {
	case isArithmetic(op):
		v.ArithmeticOps++
		c.arithmetic[text] = struct{}{}
	case isComparison(op):
		v.CmpOps++
		c.comparisons[text] = struct{}{}
	case isBitwise(op):
		v.BitwiseOps++
		c.bitwise[text] = struct{}{}
	}
	switch op {
	case pylex.Plus:
		v.AddOps++
	case pylex.Minus:
		v.MinusOps++
	case pylex.Star:
		v.MultOps++
	case pylex.Slash:
		v.DivOps++
	case pylex.Percent:
		v.ModOps++
	case pylex.DoubleStar:
		v.PowerOps++
	case pylex.DoubleSlash:
		v.FloorDivOps++
	case pylex.EqEqual:
		v.EqualOps++
	case pylex.NotEqual:
		v.NotEqualOps++
	case pylex.LessEqual:
		v.LessEqualOps++
	case pylex.GreaterEqual:
		v.GreaterEqualOps++
	case pylex.Less:
		v.LessOps++
	case pylex.Greater:
		v.GreaterOps++
	case pylex.Amper:
		v.BitwiseAnd++
	case pylex.VBar:
		v.BitwiseOr++
	case pylex.Circumflex:
		v.BitwiseXor++
	case pylex.Tilde:
		v.BitwiseNot++
	case pylex.LeftShift:
		v.LeftShiftOps++
	case pylex.RightShift:
		v.RightShiftOps++
	}
}

func (c *counter) identifier(tok pylex.Token) {
	c.identifiers[tok.Text] = struct{}{}
	if len(c.perLine) > 0 && tok.Line == c.lastLine {
		c.perLine[len(c.perLine)-1]++
		return
	}
	c.perLine = append(c.perLine, 1)
	c.lastLine = tok.Line
}

func (c *counter) finish(lines int) {
	v := c.v
	v.KeywordsUnique = len(c.keywords)
	v.LogicalOpsUnique = len(c.logical)
	v.BuiltinsUnique = len(c.builtins)
	v.TypeCallsUnique = len(c.types)
	v.AssignmentsUnique = len(c.assignments)
	v.ArithmeticOpsUnique = len(c.arithmetic)
	v.CmpOpsUnique = len(c.comparisons)
	v.BitwiseOpsUnique = len(c.bitwise)
	v.IdentifiersUnique = len(c.identifiers)

	for _, n := range c.perLine {
		v.Identifiers += n
	}
	if len(c.perLine) > 0 {
		v.IdentifierMean = float64(v.Identifiers) / float64(len(c.perLine))
	}
	if lines > 0 {
		v.IdentifiersPerLine = float64(v.Identifiers) / float64(lines)
	}
	if len(c.identifiers) > 0 {
		chars := 0
		for name := range c.identifiers {
			chars += len([]rune(name))
		}
		v.IdentifierChars = float64(chars) / float64(len(c.identifiers))
	}
}
