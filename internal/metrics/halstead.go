package metrics

import (
	"math"

	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pylex"
)

var operatorKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "is": true, "in": true,
}

var constantKeywords = map[string]bool{
	"True": true, "False": true, "None": true,
}

func isOperator(tok pylex.Token) bool {
	switch tok.Kind {
	case pylex.Name:
		return operatorKeywords[tok.Text]
	case pylex.Op:
		op := tok.Op
		switch {
		case op >= pylex.Plus && op <= pylex.Slash,
			op >= pylex.Less && op <= pylex.Greater,
			op == pylex.VBar, op == pylex.Amper, op == pylex.Percent,
			op >= pylex.EqEqual && op <= pylex.DoubleStarEqual,
			op == pylex.DoubleSlash, op == pylex.DoubleSlashEqual,
			op == pylex.At, op == pylex.AtEqual:
			return true
		}
	}
	return false
}

func isOperand(tok pylex.Token) bool {
	switch tok.Kind {
	case pylex.Number, pylex.String:
		return true
	case pylex.Name:
		return constantKeywords[tok.Text] || !pylex.IsKeyword(tok.Text)
	}
	return false
}

// halstead treats operator tokens as operators and the literals or names
// directly next to them as operands.
func halstead(m *model.CodeMetrics, tokens []pylex.Token) {
	operators := map[string]struct{}{}
	operands := map[string]struct{}{}
	used := make([]bool, len(tokens))

	useOperand := func(i int) {
		if i < 0 || i >= len(tokens) || used[i] || !isOperand(tokens[i]) {
			return
		}
		used[i] = true
		m.N2++
		operands[tokens[i].Text] = struct{}{}
	}

	for i, tok := range tokens {
		if !isOperator(tok) {
			continue
		}
		m.N1++
		operators[tok.Text] = struct{}{}
		useOperand(i - 1)
		useOperand(i + 1)
	}

	m.H1 = len(operators)
	m.H2 = len(operands)
	m.Vocabulary = m.H1 + m.H2
	m.Length = m.N1 + m.N2
	m.CalculatedLength = nlog2n(m.H1) + nlog2n(m.H2)
	if m.Vocabulary > 0 {
		m.Volume = float64(m.Length) * math.Log2(float64(m.Vocabulary))
	}
	if m.H2 > 0 {
		m.Difficulty = float64(m.H1) / 2 * float64(m.N2) / float64(m.H2)
	}
	m.Effort = m.Difficulty * m.Volume
	m.Time = m.Effort / 18
	m.Bugs = m.Volume / 3000
}

func nlog2n(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(n) * math.Log2(float64(n))
}
