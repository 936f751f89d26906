package features

// importKeywords only count when they open a line.
var importKeywords = setOf("import", "from")

var builtins = setOf(
	"abs", "all", "any", "ascii", "bin", "bool", "breakpoint", "bytearray",
	"bytes", "callable", "chr", "classmethod", "compile", "complex",
	"delattr", "dict", "dir", "divmod", "enumerate", "eval", "exec",
	"filter", "float", "format", "frozenset", "getattr", "globals",
	"hasattr", "hash", "hex", "id", "input", "int", "isinstance",
	"issubclass", "iter", "len", "list", "locals", "map", "max", "min",
	"next", "object", "oct", "open", "ord", "pow", "print", "property",
	"range", "repr", "reversed", "round", "set", "setattr", "slice",
	"sorted", "staticmethod", "str", "sum", "super", "tuple", "type",
	"vars", "zip",
)

// typeNames is the subset of builtins that construct values of a core type.
// None and memoryview are listed but never reached: the first is a keyword
// and the second is not in the builtin table.
var typeNames = setOf(
	"bool", "bytes", "bytearray", "complex", "dict", "float", "set", "int",
	"list", "range", "object", "str", "memoryview", "None", "frozenset",
)

func setOf(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func has(set map[string]struct{}, s string) bool {
	_, ok := set[s]
	return ok
}
