package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/value"
)

type fakeColumnTyper struct{ dt value.DataType; ok bool }

func (f fakeColumnTyper) ColumnType(entity, name string) (value.DataType, bool) { return f.dt, f.ok }

func TestInferTypeLiteralReturnsItsOwnType(t *testing.T) {
	dt, ok := InferType(Literal{Value: value.Int64(1)}, nil, nil, nil)
	require.True(t, ok)
	require.Equal(t, value.Int, dt)
}

func TestInferTypeArithmeticPromotesToHigherRank(t *testing.T) {
	cols := map[string]value.DataType{"a": value.Int, "b": value.Float}
	n := Binary{Op: OpAdd, Left: Identifier{Name: "a"}, Right: Identifier{Name: "b"}}
	dt, ok := InferType(n, cols, nil, nil)
	require.True(t, ok)
	require.Equal(t, value.Float, dt)
}

func TestInferTypeComparisonIsAlwaysBoolean(t *testing.T) {
	cols := map[string]value.DataType{"a": value.Int}
	n := Binary{Op: OpGt, Left: Identifier{Name: "a"}, Right: Literal{Value: value.Int64(1)}}
	dt, ok := InferType(n, cols, nil, nil)
	require.True(t, ok)
	require.Equal(t, value.Boolean, dt)
}

func TestInferTypeCrossEntityResolvesViaMappingThenSource(t *testing.T) {
	n := DotPath{Segments: []string{"customers", "id"}}
	dt, ok := InferType(n, nil, fakeResolver{target: "customer_id", ok: true}, fakeColumnTyper{dt: value.Long, ok: true})
	require.True(t, ok)
	require.Equal(t, value.Long, dt)
}

func TestInferTypeFunctionCallsReturnVarChar(t *testing.T) {
	dt, ok := InferType(FunctionCall{Name: "UPPER", Args: []Node{Literal{Value: value.String("x")}}}, nil, nil, nil)
	require.True(t, ok)
	require.Equal(t, value.VarChar, dt)
}

func TestInferTypeUnknownIdentifierIsAbsent(t *testing.T) {
	_, ok := InferType(Identifier{Name: "ghost"}, map[string]value.DataType{}, nil, nil)
	require.False(t, ok)
}
