package value

import "strings"

// FieldValue is one named, typed slot within a RowData.
type FieldValue struct {
	Name     string
	Value    *Value // nil means absent (distinct from an explicit Null Value)
	DataType DataType
}

// ValueDataType reports the data type of the carried Value, if any.
func (f FieldValue) ValueDataType() (DataType, bool) {
	if f.Value == nil {
		return DataType{}, false
	}
	return f.Value.DataType(), true
}

// RowData is an ordered, named tuple read from a Source or produced
// by the transform stage. Lookups are case-insensitive by name.
type RowData struct {
	Entity      string
	FieldValues []FieldValue
}

// Get returns the named field's value, case-insensitively. The
// second return is false when the field is absent from the row.
func (r RowData) Get(name string) (Value, bool) {
	for _, f := range r.FieldValues {
		if strings.EqualFold(f.Name, name) {
			if f.Value == nil {
				return Value{}, false
			}
			return *f.Value, true
		}
	}
	return Value{}, false
}

// Field returns the FieldValue itself, case-insensitively.
func (r RowData) Field(name string) (FieldValue, bool) {
	for _, f := range r.FieldValues {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldValue{}, false
}

// Set inserts or replaces a named field, case-insensitively on name
// match, preserving field order.
func (r *RowData) Set(name string, v Value, dt DataType) {
	for i := range r.FieldValues {
		if strings.EqualFold(r.FieldValues[i].Name, name) {
			r.FieldValues[i].Value = &v
			r.FieldValues[i].DataType = dt
			return
		}
	}
	r.FieldValues = append(r.FieldValues, FieldValue{Name: name, Value: &v, DataType: dt})
}

// Names returns the row's field names in order.
func (r RowData) Names() []string {
	out := make([]string, len(r.FieldValues))
	for i, f := range r.FieldValues {
		out[i] = f.Name
	}
	return out
}
