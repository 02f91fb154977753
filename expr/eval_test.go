package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/value"
)

func rowOf(fields map[string]value.Value) value.RowData {
	var r value.RowData
	for k, v := range fields {
		r.Set(k, v, v.DataType())
	}
	return r
}

func TestEvaluateIdentifierReadsRowField(t *testing.T) {
	row := rowOf(map[string]value.Value{"total": value.Int64(42)})
	v, ok := Evaluate(Identifier{Name: "total"}, row, nil, nil)
	require.True(t, ok)
	i, _ := v.Int()
	require.Equal(t, int64(42), i)
}

func TestEvaluateIdentifierMissingFieldIsAbsent(t *testing.T) {
	_, ok := Evaluate(Identifier{Name: "missing"}, value.RowData{}, nil, nil)
	require.False(t, ok)
}

func TestEvaluateIntAdditionStaysInt(t *testing.T) {
	n := Binary{Op: OpAdd, Left: Literal{Value: value.Int64(2)}, Right: Literal{Value: value.Int64(3)}}
	v, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.True(t, ok)
	i, _ := v.Int()
	require.Equal(t, int64(5), i)
}

func TestEvaluateIntAdditionOverflowIsAbsent(t *testing.T) {
	n := Binary{Op: OpAdd, Left: Literal{Value: value.Int64(math.MaxInt64)}, Right: Literal{Value: value.Int64(1)}}
	_, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.False(t, ok)
}

func TestEvaluateIntFloatMixPromotesToFloat(t *testing.T) {
	n := Binary{Op: OpAdd, Left: Literal{Value: value.Int64(2)}, Right: Literal{Value: value.Float64(0.5)}}
	v, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.True(t, ok)
	f, _ := v.AsF64()
	require.Equal(t, 2.5, f)
}

func TestEvaluateDivideByZeroIsAbsent(t *testing.T) {
	n := Binary{Op: OpDivide, Left: Literal{Value: value.Int64(1)}, Right: Literal{Value: value.Int64(0)}}
	_, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.False(t, ok)
}

func TestEvaluateComparisonOperators(t *testing.T) {
	n := Binary{Op: OpGt, Left: Literal{Value: value.Int64(5)}, Right: Literal{Value: value.Int64(3)}}
	v, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.True(t, ok)
	b, _ := v.AsBool()
	require.True(t, b)
}

func TestEvaluateWhenPicksFirstMatchingBranch(t *testing.T) {
	n := When{
		Branches: []WhenBranch{
			{Condition: Literal{Value: value.Bool(false)}, Value: Literal{Value: value.String("no")}},
			{Condition: Literal{Value: value.Bool(true)}, Value: Literal{Value: value.String("yes")}},
		},
		Else: Literal{Value: value.String("else")},
	}
	v, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.True(t, ok)
	s, _ := v.AsString()
	require.Equal(t, "yes", s)
}

func TestEvaluateWhenFallsThroughToElse(t *testing.T) {
	n := When{
		Branches: []WhenBranch{{Condition: Literal{Value: value.Bool(false)}, Value: Literal{Value: value.String("no")}}},
		Else:     Literal{Value: value.String("else")},
	}
	v, ok := Evaluate(n, value.RowData{}, nil, nil)
	require.True(t, ok)
	s, _ := v.AsString()
	require.Equal(t, "else", s)
}

func TestEvaluateIsNullAndIsNotNull(t *testing.T) {
	row := rowOf(map[string]value.Value{"x": value.Null()})
	v, ok := Evaluate(IsNull{Operand: Identifier{Name: "x"}}, row, nil, nil)
	require.True(t, ok)
	b, _ := v.AsBool()
	require.True(t, b)

	v, ok = Evaluate(IsNotNull{Operand: Identifier{Name: "x"}}, row, nil, nil)
	require.True(t, ok)
	b, _ = v.AsBool()
	require.False(t, b)
}

type fakeResolver struct{ target string; ok bool }

func (f fakeResolver) ResolveForeignField(entity, key string) (string, bool) {
	return f.target, f.ok
}

func TestEvaluateDotPathResolvesCrossEntityField(t *testing.T) {
	row := rowOf(map[string]value.Value{"customer_id": value.Int64(7)})
	n := DotPath{Segments: []string{"customers", "id"}}
	v, ok := Evaluate(n, row, fakeResolver{target: "customer_id", ok: true}, nil)
	require.True(t, ok)
	i, _ := v.Int()
	require.Equal(t, int64(7), i)
}

func TestEvaluateFunctionLowerUpperConcat(t *testing.T) {
	v, ok := Evaluate(FunctionCall{Name: "lower", Args: []Node{Literal{Value: value.String("HeLLo")}}}, value.RowData{}, nil, nil)
	require.True(t, ok)
	s, _ := v.AsString()
	require.Equal(t, "hello", s)

	v, ok = Evaluate(FunctionCall{Name: "concat", Args: []Node{Literal{Value: value.String("a")}, Literal{Value: value.String("b")}}}, value.RowData{}, nil, nil)
	require.True(t, ok)
	s, _ = v.AsString()
	require.Equal(t, "ab", s)
}

func TestEvaluateEnvFunctionFallsBackToDefault(t *testing.T) {
	n := FunctionCall{Name: "env", Args: []Node{Literal{Value: value.String("MISSING_VAR")}, Literal{Value: value.String("fallback")}}}
	v, ok := Evaluate(n, value.RowData{}, nil, func(string) (string, bool) { return "", false })
	require.True(t, ok)
	s, _ := v.AsString()
	require.Equal(t, "fallback", s)
}
