// Package value implements the tagged value universe and the closed
// DataType sum that the rest of the engine is built on: row fields,
// expression results and schema-plan column types are all instances
// of Value / DataType.
package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind tags the variant carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat64
	KindDecimal
	KindBool
	KindString
	KindUUID
	KindBytes
	KindDate
	KindTimestamp
	KindNaiveTimestamp
	KindJSON
	KindEnum
	KindStringArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	case KindBytes:
		return "bytes"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindNaiveTimestamp:
		return "naive_timestamp"
	case KindJSON:
		return "json"
	case KindEnum:
		return "enum"
	case KindStringArray:
		return "string_array"
	default:
		return "unknown"
	}
}

// Value is the tagged union carried by every row field, expression
// result and literal in the engine. The zero Value is Null.
type Value struct {
	kind Kind

	i   int64
	u   uint64
	f   float64
	b   bool
	s   string
	dec decimal.Decimal
	id  uuid.UUID
	by  []byte
	t   time.Time // Date/Timestamp/NaiveTimestamp carrier
	arr []string

	// Enum carries (type name, variant) in (s, enumVariant).
	enumVariant string
}

func Null() Value { return Value{kind: KindNull} }

func Int8(v int8) Value   { return Value{kind: KindInt8, i: int64(v)} }
func Int16(v int16) Value { return Value{kind: KindInt16, i: int64(v)} }
func Int32(v int32) Value { return Value{kind: KindInt32, i: int64(v)} }
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

func Uint8(v uint8) Value   { return Value{kind: KindUint8, u: uint64(v)} }
func Uint16(v uint16) Value { return Value{kind: KindUint16, u: uint64(v)} }
func Uint32(v uint32) Value { return Value{kind: KindUint32, u: uint64(v)} }
func Uint64(v uint64) Value { return Value{kind: KindUint64, u: v} }

func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

func Decimal(v decimal.Decimal) Value { return Value{kind: KindDecimal, dec: v} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func UUID(v uuid.UUID) Value { return Value{kind: KindUUID, id: v} }

func Bytes(v []byte) Value { return Value{kind: KindBytes, by: v} }

// Date carries a calendar date with no time-of-day component.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Timestamp carries a zone-aware instant.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }

// NaiveTimestamp carries a timestamp with no associated zone; the
// zone is supplied out-of-band (e.g. by an OffsetStrategy's configured
// timezone) when the value needs to be compared or rendered.
func NaiveTimestamp(t time.Time) Value { return Value{kind: KindNaiveTimestamp, t: t} }

func JSON(raw string) Value { return Value{kind: KindJSON, s: raw} }

// Enum carries a (type_name, variant) pair.
func Enum(typeName, variant string) Value {
	return Value{kind: KindEnum, s: typeName, enumVariant: variant}
}

func StringArray(v []string) Value { return Value{kind: KindStringArray, arr: v} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i, true
	}
	return 0, false
}

func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u, true
	}
	return 0, false
}

func (v Value) DecimalValue() (decimal.Decimal, bool) {
	if v.kind == KindDecimal {
		return v.dec, true
	}
	return decimal.Decimal{}, false
}

func (v Value) UUIDValue() (uuid.UUID, bool) {
	if v.kind == KindUUID {
		return v.id, true
	}
	return uuid.Nil, false
}

func (v Value) BytesValue() ([]byte, bool) {
	if v.kind == KindBytes {
		return v.by, true
	}
	return nil, false
}

func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate, KindTimestamp, KindNaiveTimestamp:
		return v.t, true
	}
	return time.Time{}, false
}

func (v Value) EnumParts() (typeName, variant string, ok bool) {
	if v.kind == KindEnum {
		return v.s, v.enumVariant, true
	}
	return "", "", false
}

func (v Value) StringArrayValue() ([]string, bool) {
	if v.kind == KindStringArray {
		return v.arr, true
	}
	return nil, false
}

// AsF64 performs a lossy numeric coercion, returning (0, false) for
// kinds with no sensible numeric reading.
func (v Value) AsF64() (float64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return float64(v.i), true
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return float64(v.u), true
	case KindFloat64:
		return v.f, true
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsUsize performs a lossy coercion to a non-negative integer.
func (v Value) AsUsize() (uint64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u, true
	case KindFloat64:
		if v.f < 0 {
			return 0, false
		}
		return uint64(v.f), true
	case KindString:
		u, err := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, false
		}
		return u, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsString renders any Value as a string, the rule used by concat()
// and by the SQL generator's literal rendering.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10), true
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return strconv.FormatUint(v.u, 10), true
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'f', -1, 64), true
	case KindDecimal:
		return v.dec.String(), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindString:
		return v.s, true
	case KindUUID:
		return v.id.String(), true
	case KindBytes:
		return string(v.by), true
	case KindDate:
		return v.t.Format("2006-01-02"), true
	case KindTimestamp:
		return v.t.UTC().Format(time.RFC3339Nano), true
	case KindNaiveTimestamp:
		return v.t.Format("2006-01-02T15:04:05.999999999"), true
	case KindJSON:
		return v.s, true
	case KindNull:
		return "NULL", true
	case KindEnum:
		return v.enumVariant, true
	case KindStringArray:
		return fmt.Sprintf("%v", v.arr), true
	}
	return "", false
}

// AsBool performs a lossy coercion to bool.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i != 0, true
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u != 0, true
	case KindFloat64:
		return v.f != 0, true
	case KindBool:
		return v.b, true
	case KindString:
		switch strings.ToLower(v.s) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

// Equal reports pairwise equality with cross-kind numeric promotion.
func (v Value) Equal(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c == 0
}

// Compare implements a partial order over Value with numeric
// promotion across Int/Uint/Float/Decimal. The second return is
// false when the pair is not comparable.
func (v Value) Compare(o Value) (int, bool) {
	if v.kind == KindNull || o.kind == KindNull {
		if v.kind == o.kind {
			return 0, true
		}
		return 0, false
	}
	if isNumeric(v.kind) && isNumeric(o.kind) {
		return compareNumeric(v, o)
	}
	if v.kind != o.kind {
		return 0, false
	}
	switch v.kind {
	case KindBool:
		return boolCmp(v.b, o.b), true
	case KindString, KindJSON:
		return strings.Compare(v.s, o.s), true
	case KindUUID:
		return strings.Compare(v.id.String(), o.id.String()), true
	case KindBytes:
		return compareBytes(v.by, o.by), true
	case KindDate, KindTimestamp, KindNaiveTimestamp:
		if v.t.Before(o.t) {
			return -1, true
		}
		if v.t.After(o.t) {
			return 1, true
		}
		return 0, true
	case KindEnum:
		if v.s != o.s {
			return 0, false
		}
		return strings.Compare(v.enumVariant, o.enumVariant), true
	}
	return 0, false
}

func isNumeric(k Kind) bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat64, KindDecimal:
		return true
	}
	return false
}

func compareNumeric(a, b Value) (int, bool) {
	af, aok := a.AsF64()
	bf, bok := b.AsF64()
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func boolCmp(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareBytes(a, b []byte) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// DataType reports the DataType witness for v.
func (v Value) DataType() DataType {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return Int
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return IntUnsigned
	case KindFloat64:
		return Float
	case KindDecimal:
		return Decimal_
	case KindBool:
		return Boolean
	case KindString:
		return String_
	case KindUUID:
		return VarChar
	case KindBytes:
		return Bytea
	case KindDate:
		return Date_
	case KindTimestamp, KindNaiveTimestamp:
		return Timestamp_
	case KindJSON:
		return Json
	case KindEnum:
		return Enum_
	case KindStringArray:
		return Array(nil)
	}
	return Null_
}

// SizeBytes reports the approximate on-wire size of v, used for
// Batch byte accounting.
func (v Value) SizeBytes() int {
	switch v.kind {
	case KindInt8, KindUint8, KindBool:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	case KindDecimal:
		return len(v.dec.String())
	case KindString, KindJSON:
		return len(v.s)
	case KindUUID:
		return 16
	case KindBytes:
		return len(v.by)
	case KindDate, KindTimestamp, KindNaiveTimestamp:
		return 8
	case KindEnum:
		return len(v.enumVariant)
	case KindStringArray:
		n := 0
		for _, s := range v.arr {
			n += len(s)
		}
		return n
	}
	return 0
}

// UnixMicro reports the UTC microsecond timestamp of a Date/Timestamp/
// NaiveTimestamp value interpreted in loc, used by cursor derivation.
func (v Value) UnixMicro(loc *time.Location) (int64, bool) {
	t, ok := v.Time()
	if !ok {
		return 0, false
	}
	if v.kind == KindNaiveTimestamp {
		if loc == nil {
			loc = time.UTC
		}
		local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
		return local.UTC().UnixMicro(), true
	}
	return t.UTC().UnixMicro(), true
}

// FromUnixMicro builds a Timestamp Value from a UTC microsecond count.
func FromUnixMicro(us int64) Value {
	sec := us / 1_000_000
	rem := us % 1_000_000
	if rem < 0 {
		sec--
		rem += 1_000_000
	}
	return Timestamp(time.Unix(sec, rem*1000).UTC())
}
