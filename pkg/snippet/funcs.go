package snippet

import (
	"html"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions returns the function table available to HCL snippets.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		// Strings
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"title":     stdlib.TitleFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"chomp":     stdlib.ChompFunc,
		"indent":    stdlib.IndentFunc,
		"replace":   stdlib.ReplaceFunc,
		"split":     stdlib.SplitFunc,
		"join":      stdlib.JoinFunc,
		"substr":    stdlib.SubstrFunc,
		"format":    stdlib.FormatFunc,
		"escape":    EscapeFunc,

		// Numbers
		"abs":   stdlib.AbsoluteFunc,
		"ceil":  stdlib.CeilFunc,
		"floor": stdlib.FloorFunc,
		"max":   stdlib.MaxFunc,
		"min":   stdlib.MinFunc,

		// Collections
		"length":   stdlib.LengthFunc,
		"concat":   stdlib.ConcatFunc,
		"contains": stdlib.ContainsFunc,
		"distinct": stdlib.DistinctFunc,
		"element":  stdlib.ElementFunc,
		"flatten":  stdlib.FlattenFunc,
		"keys":     stdlib.KeysFunc,
		"values":   stdlib.ValuesFunc,
		"merge":    stdlib.MergeFunc,
		"sort":     stdlib.SortFunc,
		"range":    stdlib.RangeFunc,
		"repeat":   RepeatFunc,

		// Logic
		"coalesce": stdlib.CoalesceFunc,
		"isset":    IssetFunc,

		// Encoding
		"jsonencode": stdlib.JSONEncodeFunc,
	}
}

// EscapeFunc escapes markup-significant characters in a string.
var EscapeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(html.EscapeString(args[0].AsString())), nil
	},
})

// MaxRepeat is the largest count RepeatFunc accepts.
const MaxRepeat = 10000

// RepeatFunc returns a list of the numbers 0 to count-1, for use in for
// expressions. count above MaxRepeat is an error.
var RepeatFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "count", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		bf := args[0].AsBigFloat()
		if bf.Cmp(big.NewFloat(MaxRepeat)) > 0 {
			return cty.NilVal, function.NewArgErrorf(0, "count must be at most %d", MaxRepeat)
		}
		var count int
		if bf.IsInt() {
			i, _ := bf.Int64()
			count = int(i)
		}
		if count <= 0 {
			return cty.ListValEmpty(cty.Number), nil
		}
		vals := make([]cty.Value, count)
		for i := 0; i < count; i++ {
			vals[i] = cty.NumberIntVal(int64(i))
		}
		return cty.ListVal(vals), nil
	},
})

// IssetFunc reports whether a value is present and not its zero value.
var IssetFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name:             "value",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowUnknown:     true,
			AllowDynamicType: true,
		},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v := args[0]
		if v.IsNull() || !v.IsKnown() {
			return cty.False, nil
		}
		return cty.BoolVal(!isZero(v)), nil
	},
})

func isZero(v cty.Value) bool {
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString() == ""
	case ty == cty.Number:
		return v.AsBigFloat().Sign() == 0
	case ty == cty.Bool:
		return v.False()
	case ty.IsObjectType():
		return len(ty.AttributeTypes()) == 0
	case ty.IsCollectionType() || ty.IsTupleType():
		return v.LengthInt() == 0
	}
	return false
}
