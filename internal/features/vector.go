package features

// Vector holds the lexical counters of one snippet. Field order is the
// column order used by exports.
type Vector struct {
	Imports             int     `json:"imports"`
	Assignments         int     `json:"assignments"`
	AssignmentsUnique   int     `json:"assignments_unique"`
	Keywords            int     `json:"kwds"`
	KeywordsUnique      int     `json:"kwds_unique"`
	Numbers             int     `json:"lt_numbers"`
	Strings             int     `json:"lt_strings"`
	Booleans            int     `json:"lt_booleans"`
	LogicalOps          int     `json:"lgc_op"`
	LogicalOpsUnique    int     `json:"lgc_op_unique"`
	AndOps              int     `json:"and_op"`
	OrOps               int     `json:"or_op"`
	NotOps              int     `json:"not_op"`
	ArithmeticOps       int     `json:"arithmetic_op"`
	ArithmeticOpsUnique int     `json:"arithmetic_op_unique"`
	AddOps              int     `json:"add_op"`
	MinusOps            int     `json:"minus_op"`
	MultOps             int     `json:"mult_op"`
	DivOps              int     `json:"div_op"`
	ModOps              int     `json:"mod_op"`
	PowerOps            int     `json:"power_op"`
	FloorDivOps         int     `json:"div_floor_op"`
	CmpOps              int     `json:"cmp_op"`
	CmpOpsUnique        int     `json:"cmp_op_unique"`
	EqualOps            int     `json:"equal_op"`
	NotEqualOps         int     `json:"not_eq_op"`
	LessEqualOps        int     `json:"lt_op"`
	GreaterEqualOps     int     `json:"gt_op"`
	LessOps             int     `json:"less_op"`
	GreaterOps          int     `json:"greater_op"`
	BitwiseOps          int     `json:"bitwise_op"`
	BitwiseOpsUnique    int     `json:"bitwise_op_unique"`
	BitwiseAnd          int     `json:"bitwise_and"`
	BitwiseOr           int     `json:"bitwise_or"`
	BitwiseXor          int     `json:"bitwise_xor"`
	BitwiseNot          int     `json:"bitwise_not"`
	LeftShiftOps        int     `json:"lshift_op"`
	RightShiftOps       int     `json:"rshift_op"`
	IdentityOps         int     `json:"identity_op"`
	MembershipOps       int     `json:"membership_op"`
	Conditionals        int     `json:"conditionals"`
	Ifs                 int     `json:"ifs"`
	Elifs               int     `json:"elifs"`
	Elses               int     `json:"elses"`
	Loops               int     `json:"loops"`
	Whiles              int     `json:"whiles"`
	Fors                int     `json:"fors"`
	Breaks              int     `json:"breaks"`
	Continues           int     `json:"continues"`
	Builtins            int     `json:"builtin_f"`
	BuiltinsUnique      int     `json:"builtin_f_unique"`
	TypeCalls           int     `json:"type_f"`
	TypeCallsUnique     int     `json:"type_f_unique"`
	Lambdas             int     `json:"lambdas"`
	LPar                int     `json:"lpar"`
	RPar                int     `json:"rpar"`
	LSqb                int     `json:"lsqb"`
	RSqb                int     `json:"rsqb"`
	LBrace              int     `json:"lbrace"`
	RBrace              int     `json:"rbrace"`
	Commas              int     `json:"commas"`
	Colons              int     `json:"colons"`
	Dots                int     `json:"dots"`
	Prints              int     `json:"prints"`
	Inputs              int     `json:"inputs"`
	Lens                int     `json:"len"`
	Identifiers         int     `json:"uident"`
	IdentifiersUnique   int     `json:"uident_unique"`
	IdentifierMean      float64 `json:"uident_mean"`
	IdentifiersPerLine  float64 `json:"uident_per_line"`
	IdentifierChars     float64 `json:"uident_chars"`
}

// Field is one named counter of a Vector.
type Field struct {
	Name  string
	Value float64
}

// FieldNames lists the counter names in column order.
func FieldNames() []string {
	fields := (&Vector{}).Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns every counter in column order.
func (v *Vector) Fields() []Field {
	return []Field{
		{"imports", float64(v.Imports)},
		{"assignments", float64(v.Assignments)},
		{"assignments_unique", float64(v.AssignmentsUnique)},
		{"kwds", float64(v.Keywords)},
		{"kwds_unique", float64(v.KeywordsUnique)},
		{"lt_numbers", float64(v.Numbers)},
		{"lt_strings", float64(v.Strings)},
		{"lt_booleans", float64(v.Booleans)},
		{"lgc_op", float64(v.LogicalOps)},
		{"lgc_op_unique", float64(v.LogicalOpsUnique)},
		{"and_op", float64(v.AndOps)},
		{"or_op", float64(v.OrOps)},
		{"not_op", float64(v.NotOps)},
		{"arithmetic_op", float64(v.ArithmeticOps)},
		{"arithmetic_op_unique", float64(v.ArithmeticOpsUnique)},
		{"add_op", float64(v.AddOps)},
		{"minus_op", float64(v.MinusOps)},
		{"mult_op", float64(v.MultOps)},
		{"div_op", float64(v.DivOps)},
		{"mod_op", float64(v.ModOps)},
		{"power_op", float64(v.PowerOps)},
		{"div_floor_op", float64(v.FloorDivOps)},
		{"cmp_op", float64(v.CmpOps)},
		{"cmp_op_unique", float64(v.CmpOpsUnique)},
		{"equal_op", float64(v.EqualOps)},
		{"not_eq_op", float64(v.NotEqualOps)},
		{"lt_op", float64(v.LessEqualOps)},
		{"gt_op", float64(v.GreaterEqualOps)},
		{"less_op", float64(v.LessOps)},
		{"greater_op", float64(v.GreaterOps)},
		{"bitwise_op", float64(v.BitwiseOps)},
		{"bitwise_op_unique", float64(v.BitwiseOpsUnique)},
		{"bitwise_and", float64(v.BitwiseAnd)},
		{"bitwise_or", float64(v.BitwiseOr)},
		{"bitwise_xor", float64(v.BitwiseXor)},
		{"bitwise_not", float64(v.BitwiseNot)},
		{"lshift_op", float64(v.LeftShiftOps)},
		{"rshift_op", float64(v.RightShiftOps)},
		{"identity_op", float64(v.IdentityOps)},
		{"membership_op", float64(v.MembershipOps)},
		{"conditionals", float64(v.Conditionals)},
		{"ifs", float64(v.Ifs)},
		{"elifs", float64(v.Elifs)},
		{"elses", float64(v.Elses)},
		{"loops", float64(v.Loops)},
		{"whiles", float64(v.Whiles)},
		{"fors", float64(v.Fors)},
		{"breaks", float64(v.Breaks)},
		{"continues", float64(v.Continues)},
		{"builtin_f", float64(v.Builtins)},
		{"builtin_f_unique", float64(v.BuiltinsUnique)},
		{"type_f", float64(v.TypeCalls)},
		{"type_f_unique", float64(v.TypeCallsUnique)},
		{"lambdas", float64(v.Lambdas)},
		{"lpar", float64(v.LPar)},
		{"rpar", float64(v.RPar)},
		{"lsqb", float64(v.LSqb)},
		{"rsqb", float64(v.RSqb)},
		{"lbrace", float64(v.LBrace)},
		{"rbrace", float64(v.RBrace)},
		{"commas", float64(v.Commas)},
		{"colons", float64(v.Colons)},
		{"dots", float64(v.Dots)},
		{"prints", float64(v.Prints)},
		{"inputs", float64(v.Inputs)},
		{"len", float64(v.Lens)},
		{"uident", float64(v.Identifiers)},
		{"uident_unique", float64(v.IdentifiersUnique)},
		{"uident_mean", v.IdentifierMean},
		{"uident_per_line", v.IdentifiersPerLine},
		{"uident_chars", v.IdentifierChars},
	}
}
