package expr

import (
	"strings"

	"github.com/dataflux/dataflux/value"
)

// ColumnTyper answers "what DataType does column `name` on `entity`
// have" for the Source metadata consulted while inferring the type
// of a cross-entity reference.
type ColumnTyper interface {
	ColumnType(entity, name string) (value.DataType, bool)
}

// numericRank places Int below Float below Decimal on the promotion
// lattice used by arithmetic type inference.
func numericRank(dt value.DataType) int {
	switch dt {
	case value.Int, value.IntUnsigned, value.Short, value.ShortUnsigned,
		value.Long, value.LongLong, value.Int4, value.Year:
		return 0
	case value.Float, value.Double:
		return 1
	case value.Decimal_:
		return 2
	}
	return -1
}

// InferType statically infers the DataType an expression will
// produce, used by schema planning to size computed-field columns.
// columns resolves a bare Identifier/single-segment DotPath to its
// source DataType; mapping/source together resolve cross-entity
// references the same way Evaluate does.
func InferType(n Node, columns map[string]value.DataType, mapping ForeignFieldResolver, source ColumnTyper) (value.DataType, bool) {
	switch t := n.(type) {
	case Literal:
		return t.Value.DataType(), true

	case Identifier:
		dt, ok := lookupColumn(columns, t.Name)
		return dt, ok

	case DotPath:
		switch len(t.Segments) {
		case 0:
			return value.DataType{}, false
		case 1:
			dt, ok := lookupColumn(columns, t.Segments[0])
			return dt, ok
		default:
			entity := t.Segments[0]
			key := t.Segments[len(t.Segments)-1]
			if mapping != nil {
				if target, ok := mapping.ResolveForeignField(entity, key); ok {
					if source != nil {
						if dt, ok := source.ColumnType(entity, target); ok {
							return dt, true
						}
					}
				}
			}
			if source != nil {
				return source.ColumnType(entity, key)
			}
			return value.DataType{}, false
		}

	case Binary:
		if !t.Op.isArithmetic() {
			return value.Boolean, true
		}
		lt, lok := InferType(t.Left, columns, mapping, source)
		rt, rok := InferType(t.Right, columns, mapping, source)
		if !lok || !rok {
			return value.DataType{}, false
		}
		lr, rr := numericRank(lt), numericRank(rt)
		if lr < 0 || rr < 0 {
			return value.DataType{}, false
		}
		if lr >= rr {
			return rankType(lr), true
		}
		return rankType(rr), true

	case Unary:
		return InferType(t.Operand, columns, mapping, source)

	case FunctionCall:
		switch {
		case strings.EqualFold(t.Name, "lower"), strings.EqualFold(t.Name, "upper"), strings.EqualFold(t.Name, "concat"):
			return value.VarChar, true
		case strings.EqualFold(t.Name, "env"):
			return value.VarChar, true
		}
		return value.DataType{}, false

	case When:
		if len(t.Branches) == 0 {
			return value.DataType{}, false
		}
		return InferType(t.Branches[0].Value, columns, mapping, source)

	case IsNull, IsNotNull:
		return value.Boolean, true

	case Grouped:
		return InferType(t.Operand, columns, mapping, source)
	}
	return value.DataType{}, false
}

func rankType(r int) value.DataType {
	switch r {
	case 0:
		return value.Int
	case 1:
		return value.Float
	default:
		return value.Decimal_
	}
}

func lookupColumn(columns map[string]value.DataType, name string) (value.DataType, bool) {
	if dt, ok := columns[name]; ok {
		return dt, true
	}
	for k, dt := range columns {
		if strings.EqualFold(k, name) {
			return dt, true
		}
	}
	return value.DataType{}, false
}

