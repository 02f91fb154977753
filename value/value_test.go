package value

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericPromotionCompare(t *testing.T) {
	a := Int64(3)
	b := Float64(3.0)
	eq, ok := a.Compare(b)
	require.True(t, ok)
	assert.Equal(t, 0, eq)

	c := Decimal(decimal.NewFromFloat(3.5))
	lt, ok := a.Compare(c)
	require.True(t, ok)
	assert.Equal(t, -1, lt)
}

func TestCompareIncompatibleKinds(t *testing.T) {
	_, ok := String("x").Compare(Bool(true))
	assert.False(t, ok)
}

func TestAsStringConcatRule(t *testing.T) {
	for _, v := range []Value{Int64(1), Uint64(2), Float64(1.5), Bool(true), Null()} {
		s, ok := v.AsString()
		require.True(t, ok)
		assert.NotEmpty(t, s)
	}
}

func TestDataTypeWitness(t *testing.T) {
	assert.Equal(t, Int, Int64(1).DataType())
	assert.Equal(t, IntUnsigned, Uint64(1).DataType())
	assert.True(t, Int.IsCompatible(IntUnsigned))
}

func TestIsCompatibleSymmetric(t *testing.T) {
	pairs := []struct{ a, b DataType }{
		{Int, IntUnsigned}, {Short, ShortUnsigned}, {Long, LongLong},
		{Int4, Int}, {String_, VarChar}, {Geometry, Bytea},
		{Blob, Bytea}, {Enum_, String_}, {Set, Array(nil)},
		{Year, Int}, {Date_, Timestamp_}, {Binary, Bytea}, {VarBinary, Bytea},
	}
	for _, p := range pairs {
		assert.True(t, p.a.IsCompatible(p.b), "%v ~ %v", p.a, p.b)
		assert.True(t, p.b.IsCompatible(p.a), "%v ~ %v (reverse)", p.b, p.a)
	}
	assert.False(t, Int.IsCompatible(Json))
	assert.True(t, Int.IsCompatible(Int))
}

func TestFromMySQLTypeAndPostgresType(t *testing.T) {
	dt, err := FromMySQLType("bigint unsigned")
	require.NoError(t, err)
	assert.Equal(t, LongLong, dt)

	_, err = FromMySQLType("not_a_type")
	require.Error(t, err)
	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)

	dt, err = FromPostgresType("_int4")
	require.NoError(t, err)
	inner, ok := dt.ArrayInner()
	require.True(t, ok)
	assert.Equal(t, "INT4[]", inner)

	dt, err = FromPostgresType("timestamptz")
	require.NoError(t, err)
	assert.Equal(t, Timestamp_, dt)
}

func TestRowDataCaseInsensitiveLookup(t *testing.T) {
	v := String("Ada")
	row := RowData{Entity: "users", FieldValues: []FieldValue{
		{Name: "FirstName", Value: &v, DataType: VarChar},
	}}
	got, ok := row.Get("firstname")
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}

func TestRowDataSetPreservesOrder(t *testing.T) {
	row := RowData{Entity: "users"}
	row.Set("a", Int64(1), Int)
	row.Set("b", Int64(2), Int)
	row.Set("a", Int64(9), Int)
	assert.Equal(t, []string{"a", "b"}, row.Names())
	v, _ := row.Get("a")
	got, _ := v.Int()
	assert.EqualValues(t, 9, got)
}
