// Package metrics computes complexity, raw line and Halstead metrics of
// Python snippets.
package metrics

import (
	"fmt"

	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pylex"
)

// Provider computes code metrics for a snippet. Implementations must be safe
// for concurrent use.
type Provider interface {
	Compute(source string) (model.CodeMetrics, error)
}

// ComputationError reports a snippet the provider could not analyze.
type ComputationError struct {
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute metrics: %v", e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// TokenProvider derives all metrics from the token stream of pylex. It holds
// no state.
type TokenProvider struct{}

// Compute implements Provider.
func (TokenProvider) Compute(source string) (model.CodeMetrics, error) {
	tokens, err := pylex.Tokenize(source)
	if err != nil {
		return model.CodeMetrics{}, &ComputationError{Err: err}
	}
	var m model.CodeMetrics
	raw(&m, source, tokens)
	complexity(&m, tokens)
	halstead(&m, tokens)
	return m, nil
}

// decisionKeywords each add one independent path.
var decisionKeywords = map[string]bool{
	"if": true, "elif": true, "for": true, "while": true,
	"except": true, "and": true, "or": true, "assert": true,
}

// complexity counts decision points over the whole snippet, including
// function bodies, plus one for the entry path. Functions and classes are the
// ones defined at the top level.
func complexity(m *model.CodeMetrics, tokens []pylex.Token) {
	m.Complexity = 1
	depth := 0
	lineStart := true
	for _, tok := range tokens {
		switch tok.Kind {
		case pylex.Indent:
			depth++
			continue
		case pylex.Dedent:
			depth--
			continue
		case pylex.Newline:
			lineStart = true
			continue
		case pylex.NL, pylex.Comment:
			continue
		}
		if tok.Kind != pylex.Name {
			lineStart = false
			continue
		}
		if decisionKeywords[tok.Text] {
			m.Complexity++
		}
		if depth == 0 && lineStart {
			switch tok.Text {
			case "def":
				m.Functions++
			case "class":
				m.Classes++
			}
		}
		// "async def" still opens a definition.
		lineStart = lineStart && tok.Text == "async"
	}
}

// raw fills the line counters. Every physical line is exactly one of blank,
// comment-only, multi-line string or source, so
// LOC = SLOC + BlankLines + SingleLineComments + MultilineStrings.
func raw(m *model.CodeMetrics, source string, tokens []pylex.Token) {
	lines := pylex.SplitLines(source)
	m.LOC = len(lines)
	if m.LOC == 0 {
		return
	}

	const (
		blank = iota
		comment
		multi
		code
	)
	kinds := make([]int, m.LOC+1)
	statementStart := true
	for _, tok := range tokens {
		switch tok.Kind {
		case pylex.Comment:
			m.Comments++
			if kinds[tok.Line] == blank {
				kinds[tok.Line] = comment
			}
		case pylex.Newline:
			m.LLOC++
			statementStart = true
		case pylex.NL, pylex.Indent, pylex.Dedent, pylex.EndMarker:
		case pylex.String:
			if statementStart && tok.EndLine > tok.Line {
				for l := tok.Line; l <= tok.EndLine && l <= m.LOC; l++ {
					kinds[l] = multi
				}
				statementStart = false
				continue
			}
			fallthrough
		default:
			if tok.Kind == pylex.Op && tok.Op == pylex.Semi {
				m.LLOC++
			}
			for l := tok.Line; l <= tok.EndLine && l <= m.LOC; l++ {
				if kinds[l] != multi {
					kinds[l] = code
				}
			}
			statementStart = false
		}
	}
	for _, k := range kinds[1:] {
		switch k {
		case blank:
			m.BlankLines++
		case comment:
			m.SingleLineComments++
		case multi:
			m.MultilineStrings++
		default:
			m.SLOC++
		}
	}
}
