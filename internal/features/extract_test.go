package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cbminer/internal/pylex"
)

func TestExtractConditionalSnippet(t *testing.T) {
	v, err := Extract("if x==1:\n    y+=2\n")
	require.NoError(t, err)

	assert.Equal(t, 1, v.Conditionals)
	assert.Equal(t, 1, v.Ifs)
	assert.Equal(t, 1, v.CmpOps)
	assert.Equal(t, 1, v.EqualOps)
	assert.Equal(t, 1, v.Assignments)
	assert.Equal(t, 1, v.AssignmentsUnique)
	assert.Equal(t, 1, v.ArithmeticOps)
	assert.Equal(t, 1, v.ArithmeticOpsUnique)
	assert.Equal(t, 1, v.AddOps)
	assert.Equal(t, 2, v.Numbers)
	assert.Equal(t, 1, v.Colons)
	assert.Equal(t, 2, v.Identifiers)
	assert.Equal(t, 2, v.IdentifiersUnique)
	assert.InDelta(t, 1.0, v.IdentifierMean, 1e-9)
	assert.InDelta(t, 1.0, v.IdentifiersPerLine, 1e-9)
	assert.InDelta(t, 1.0, v.IdentifierChars, 1e-9)
}

func TestExtractKeywordsAndBuiltins(t *testing.T) {
	src := "import math\n" +
		"from os import path\n" +
		"n = int(input())\n" +
		"while n > 0 and not done:\n" +
		"    if n in seen or n is None:\n" +
		"        break\n" +
		"    elif len(str(n)) >= 3:\n" +
		"        continue\n" +
		"    else:\n" +
		"        print(True, lambda k: k)\n" +
		"for i in range(n):\n" +
		"    pass\n"
	v, err := Extract(src)
	require.NoError(t, err)

	// "import" on line 2 is not at column 0 and does not count.
	assert.Equal(t, 2, v.Imports)
	assert.Equal(t, 3, v.Conditionals)
	assert.Equal(t, 1, v.Ifs)
	assert.Equal(t, 1, v.Elifs)
	assert.Equal(t, 1, v.Elses)
	assert.Equal(t, 2, v.Loops)
	assert.Equal(t, 1, v.Whiles)
	assert.Equal(t, 1, v.Fors)
	assert.Equal(t, 3, v.LogicalOps)
	assert.Equal(t, 3, v.LogicalOpsUnique)
	assert.Equal(t, 1, v.Breaks)
	assert.Equal(t, 1, v.Continues)
	assert.Equal(t, 1, v.IdentityOps)
	assert.Equal(t, 2, v.MembershipOps)
	assert.Equal(t, 1, v.Lambdas)
	assert.Equal(t, 1, v.Booleans)

	assert.Equal(t, 6, v.Builtins)
	assert.Equal(t, 6, v.BuiltinsUnique)
	assert.Equal(t, 3, v.TypeCalls)
	assert.Equal(t, 3, v.TypeCallsUnique)
	assert.Equal(t, 1, v.Prints)
	assert.Equal(t, 1, v.Inputs)
	assert.Equal(t, 1, v.Lens)

	assert.Equal(t, 2, v.CmpOps)
	assert.Equal(t, 1, v.GreaterOps)
	assert.Equal(t, 1, v.GreaterEqualOps)
	assert.Equal(t, 0, v.EqualOps)
}

func TestExtractOperatorGroups(t *testing.T) {
	src := "a = b + c - d * e / f % g ** h // i\n" +
		"a -= 1; a //= 2; a **= 3\n" +
		"m = a & b | c ^ ~d << 1 >> 2\n" +
		"m |= 4\n" +
		"ok = a == b != c <= d < e > f\n" +
		"x = [1, 2]\n" +
		"y = {'k': (x.count)}\n"
	v, err := Extract(src)
	require.NoError(t, err)

	assert.Equal(t, 9, v.Assignments)
	assert.Equal(t, 5, v.AssignmentsUnique)

	// Seven plain operators plus -=, //= and **=.
	assert.Equal(t, 10, v.ArithmeticOps)
	assert.Equal(t, 7, v.ArithmeticOpsUnique)
	assert.Equal(t, 1, v.AddOps)
	assert.Equal(t, 2, v.MinusOps)
	assert.Equal(t, 1, v.MultOps)
	assert.Equal(t, 1, v.DivOps)
	assert.Equal(t, 1, v.ModOps)
	assert.Equal(t, 2, v.PowerOps)
	assert.Equal(t, 2, v.FloorDivOps)

	assert.Equal(t, 7, v.BitwiseOps)
	assert.Equal(t, 6, v.BitwiseOpsUnique)
	assert.Equal(t, 1, v.BitwiseAnd)
	assert.Equal(t, 2, v.BitwiseOr)
	assert.Equal(t, 1, v.BitwiseXor)
	assert.Equal(t, 1, v.BitwiseNot)
	assert.Equal(t, 1, v.LeftShiftOps)
	assert.Equal(t, 1, v.RightShiftOps)

	assert.Equal(t, 5, v.CmpOps)
	assert.Equal(t, 5, v.CmpOpsUnique)
	assert.Equal(t, 1, v.EqualOps)
	assert.Equal(t, 1, v.NotEqualOps)
	assert.Equal(t, 1, v.LessEqualOps)
	assert.Equal(t, 1, v.LessOps)
	assert.Equal(t, 1, v.GreaterOps)

	assert.Equal(t, 1, v.LSqb)
	assert.Equal(t, 1, v.RSqb)
	assert.Equal(t, 1, v.LBrace)
	assert.Equal(t, 1, v.RBrace)
	assert.Equal(t, 1, v.LPar)
	assert.Equal(t, 1, v.RPar)
	assert.Equal(t, 1, v.Commas)
	assert.Equal(t, 1, v.Colons)
	assert.Equal(t, 1, v.Dots)
	assert.Equal(t, 1, v.Strings)
}

func TestExtractIdentifierStatistics(t *testing.T) {
	src := "alpha = betas + gamma\n\nalpha = alpha\n# note\n"
	v, err := Extract(src)
	require.NoError(t, err)

	assert.Equal(t, 5, v.Identifiers)
	assert.Equal(t, 3, v.IdentifiersUnique)
	assert.InDelta(t, 2.5, v.IdentifierMean, 1e-9)
	assert.InDelta(t, 5.0/4.0, v.IdentifiersPerLine, 1e-9)
	assert.InDelta(t, 5.0, v.IdentifierChars, 1e-9)
}

func TestExtractEmptySource(t *testing.T) {
	v, err := Extract("")
	require.NoError(t, err)
	assert.Equal(t, &Vector{}, v)
}

func TestExtractTokenizationError(t *testing.T) {
	v, err := Extract("print('unterminated\n")
	assert.Nil(t, v)

	var featErr *Error
	require.True(t, errors.As(err, &featErr))
	var tokErr *pylex.TokenizationError
	require.True(t, errors.As(err, &tokErr))
	assert.Equal(t, 1, tokErr.Line)
}

func TestExtractIsIdempotent(t *testing.T) {
	src := "for i in range(10):\n    if i % 2 == 0:\n        print(i)\n"
	first, err := Extract(src)
	require.NoError(t, err)
	second, err := Extract(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFieldNamesMatchFields(t *testing.T) {
	names := FieldNames()
	require.Len(t, names, 71)
	assert.Equal(t, "imports", names[0])
	assert.Equal(t, "uident_chars", names[len(names)-1])

	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate field %s", name)
		seen[name] = true
	}
}
