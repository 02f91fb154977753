package expr

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dataflux/dataflux/value"
)

// ForeignFieldResolver supplies the cross-entity lookup a DotPath
// with two or more segments needs: given the entity and column named
// by the path, it reports the row-local column that actually carries
// the joined value. mapping.TransformationMetadata
// implements this; it is expressed as an interface here so this
// package never has to import the mapping package.
type ForeignFieldResolver interface {
	ResolveForeignField(entity, key string) (target string, ok bool)
}

// EnvGet resolves an environment variable at evaluation time, used by
// the env builtin when Compile did not already inline it.
type EnvGet func(name string) (string, bool)

// Evaluate runs the compiled expression tree n against row, returning
// (value, true) on success or (zero, false) when the expression is
// well-formed but has no value for this row: absence propagates
// rather than erroring — absent fields, overflow, and unresolved
// cross-entity references all evaluate to "no value".
func Evaluate(n Node, row value.RowData, mapping ForeignFieldResolver, env EnvGet) (value.Value, bool) {
	switch t := n.(type) {
	case Literal:
		return t.Value, true

	case Identifier:
		return row.Get(t.Name)

	case DotPath:
		switch len(t.Segments) {
		case 0:
			return value.Value{}, false
		case 1:
			return row.Get(t.Segments[0])
		default:
			return evalCrossEntity(t, row, mapping)
		}

	case Binary:
		left, ok := Evaluate(t.Left, row, mapping, env)
		if !ok {
			return value.Value{}, false
		}
		right, ok := Evaluate(t.Right, row, mapping, env)
		if !ok {
			return value.Value{}, false
		}
		return evalBinary(t.Op, left, right)

	case Unary:
		// Negation/not are reserved: pass through.
		return Evaluate(t.Operand, row, mapping, env)

	case FunctionCall:
		args := make([]value.Value, len(t.Args))
		for i, a := range t.Args {
			v, ok := Evaluate(a, row, mapping, env)
			if !ok {
				return value.Value{}, false
			}
			args[i] = v
		}
		return evalFunction(t.Name, args, env)

	case Array:
		// Reserved
		return value.Value{}, false

	case When:
		for _, b := range t.Branches {
			cond, ok := Evaluate(b.Condition, row, mapping, env)
			if ok && cond.Kind() == value.KindBool {
				if bv, _ := cond.AsBool(); bv {
					return Evaluate(b.Value, row, mapping, env)
				}
			}
		}
		if t.Else != nil {
			return Evaluate(t.Else, row, mapping, env)
		}
		return value.Value{}, false

	case IsNull:
		v, ok := Evaluate(t.Operand, row, mapping, env)
		return value.Bool(!ok || v.Kind() == value.KindNull), true

	case IsNotNull:
		v, ok := Evaluate(t.Operand, row, mapping, env)
		return value.Bool(ok && v.Kind() != value.KindNull), true

	case Grouped:
		return Evaluate(t.Operand, row, mapping, env)
	}
	return value.Value{}, false
}

func evalCrossEntity(path DotPath, row value.RowData, mapping ForeignFieldResolver) (value.Value, bool) {
	entity := path.Segments[0]
	key := path.Segments[len(path.Segments)-1]
	if mapping != nil {
		if target, ok := mapping.ResolveForeignField(entity, key); ok {
			if v, ok := row.Get(target); ok {
				return v, true
			}
		}
	}
	return row.Get(key)
}

func evalBinary(op BinaryOp, left, right value.Value) (value.Value, bool) {
	if op.isArithmetic() {
		return evalArithmetic(op, left, right)
	}
	switch op {
	case OpEq:
		return compareResult(left, right, func(c int) bool { return c == 0 })
	case OpNe:
		c, ok := left.Compare(right)
		if !ok {
			return value.Value{}, false
		}
		return value.Bool(c != 0), true
	case OpGt:
		return compareResult(left, right, func(c int) bool { return c > 0 })
	case OpLt:
		return compareResult(left, right, func(c int) bool { return c < 0 })
	case OpGe:
		return compareResult(left, right, func(c int) bool { return c >= 0 })
	case OpLe:
		return compareResult(left, right, func(c int) bool { return c <= 0 })
	case OpAnd:
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return value.Value{}, false
		}
		return value.Bool(lb && rb), true
	case OpOr:
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return value.Value{}, false
		}
		return value.Bool(lb || rb), true
	}
	return value.Value{}, false
}

func compareResult(left, right value.Value, pred func(int) bool) (value.Value, bool) {
	c, ok := left.Compare(right)
	if !ok {
		return value.Value{}, false
	}
	return value.Bool(pred(c)), true
}

// evalArithmetic implements the numeric-promotion lattice: Int+Int
// stays Int and never wraps silently on overflow (overflow -> no
// value); any Int/Float mix promotes to Float; anything touching
// Decimal promotes to Decimal via float64 and fails on a non-finite
// result.
func evalArithmetic(op BinaryOp, left, right value.Value) (value.Value, bool) {
	li, lIsInt := left.Int()
	ri, rIsInt := right.Int()
	if lIsInt && rIsInt {
		return intArithmetic(op, li, ri)
	}

	_, lDec := left.DecimalValue()
	_, rDec := right.DecimalValue()
	if lDec || rDec {
		return decimalArithmetic(op, left, right)
	}

	lf, lok := left.AsF64()
	rf, rok := right.AsF64()
	if !lok || !rok {
		return value.Value{}, false
	}
	if left.Kind() == value.KindBool || right.Kind() == value.KindBool ||
		left.Kind() == value.KindString || right.Kind() == value.KindString {
		return value.Value{}, false
	}
	switch op {
	case OpAdd:
		return value.Float64(lf + rf), true
	case OpSubtract:
		return value.Float64(lf - rf), true
	case OpMultiply:
		return value.Float64(lf * rf), true
	case OpDivide:
		return value.Float64(lf / rf), true
	case OpModulo:
		return value.Float64(math.Mod(lf, rf)), true
	}
	return value.Value{}, false
}

func intArithmetic(op BinaryOp, l, r int64) (value.Value, bool) {
	switch op {
	case OpAdd:
		sum := l + r
		if (r > 0 && sum < l) || (r < 0 && sum > l) {
			return value.Value{}, false
		}
		return value.Int64(sum), true
	case OpSubtract:
		diff := l - r
		if (r < 0 && diff < l) || (r > 0 && diff > l) {
			return value.Value{}, false
		}
		return value.Int64(diff), true
	case OpMultiply:
		if l == 0 || r == 0 {
			return value.Int64(0), true
		}
		prod := l * r
		if prod/r != l {
			return value.Value{}, false
		}
		return value.Int64(prod), true
	case OpDivide:
		if r == 0 {
			return value.Value{}, false
		}
		return value.Int64(l / r), true
	case OpModulo:
		if r == 0 {
			return value.Value{}, false
		}
		return value.Int64(l % r), true
	}
	return value.Value{}, false
}

func decimalArithmetic(op BinaryOp, left, right value.Value) (value.Value, bool) {
	lf, lok := left.AsF64()
	rf, rok := right.AsF64()
	if !lok || !rok {
		return value.Value{}, false
	}
	var result float64
	switch op {
	case OpAdd:
		result = lf + rf
	case OpSubtract:
		result = lf - rf
	case OpMultiply:
		result = lf * rf
	case OpDivide:
		if rf == 0 {
			return value.Value{}, false
		}
		result = lf / rf
	case OpModulo:
		if rf == 0 {
			return value.Value{}, false
		}
		result = math.Mod(lf, rf)
	default:
		return value.Value{}, false
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return value.Value{}, false
	}
	return value.Decimal(decimal.NewFromFloat(result)), true
}

// evalFunction implements the required builtins. Function names match
// case-insensitively.
func evalFunction(name string, args []value.Value, env EnvGet) (value.Value, bool) {
	switch strings.ToLower(name) {
	case "lower":
		if len(args) != 1 {
			return value.Value{}, false
		}
		if args[0].Kind() != value.KindString {
			return value.Value{}, false
		}
		s, _ := args[0].AsString()
		return value.String(strings.ToLower(s)), true

	case "upper":
		if len(args) != 1 {
			return value.Value{}, false
		}
		if args[0].Kind() != value.KindString {
			return value.Value{}, false
		}
		s, _ := args[0].AsString()
		return value.String(strings.ToUpper(s)), true

	case "concat":
		var b strings.Builder
		for _, a := range args {
			s, ok := a.AsString()
			if !ok {
				return value.Value{}, false
			}
			b.WriteString(s)
		}
		return value.String(b.String()), true

	case "env":
		if len(args) < 1 || len(args) > 2 {
			return value.Value{}, false
		}
		name, ok := args[0].AsString()
		if !ok {
			return value.Value{}, false
		}
		if env != nil {
			if v, ok := env(name); ok {
				return value.String(v), true
			}
		}
		if len(args) == 2 {
			return args[1], true
		}
		return value.Value{}, false
	}
	return value.Value{}, false
}
