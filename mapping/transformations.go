package mapping

import (
	"strings"

	"github.com/dataflux/dataflux/expr"
)

// ComputedField is a destination column whose value is derived from
// an expression rather than copied straight from a source column.
type ComputedField struct {
	Name       string
	Expression expr.Node
}

// FieldTransformation is one pipeline-declared projection: Target is
// the destination column name, Expression is what populates it. A
// bare Identifier expression is a rename; anything else is computed.
type FieldTransformation struct {
	Target     string
	Expression expr.Node
}

// FieldTransformations indexes a pipeline's field-level renames and
// computed fields by the destination entity they populate.
type FieldTransformations struct {
	renames  map[string]NameResolver
	computed map[string][]ComputedField
}

func NewFieldTransformations() FieldTransformations {
	return FieldTransformations{
		renames:  make(map[string]NameResolver),
		computed: make(map[string][]ComputedField),
	}
}

// FieldTransformationsFromPipeline splits transforms declared against
// a single destination entity into renames (Identifier expressions)
// and computed fields (everything else).
func FieldTransformationsFromPipeline(destEntity string, transforms []FieldTransformation) FieldTransformations {
	ft := NewFieldTransformations()
	entity := strings.ToLower(destEntity)

	renameMap := make(map[string]string)
	var computed []ComputedField
	for _, t := range transforms {
		if id, ok := t.Expression.(expr.Identifier); ok {
			renameMap[strings.ToLower(id.Name)] = strings.ToLower(t.Target)
			continue
		}
		computed = append(computed, ComputedField{Name: t.Target, Expression: t.Expression})
	}

	ft.AddMapping(entity, renameMap)
	ft.AddComputed(entity, computed)
	return ft
}

func (ft *FieldTransformations) AddMapping(entity string, m map[string]string) {
	ft.renames[entity] = NewNameResolver(m)
}

func (ft *FieldTransformations) AddComputed(entity string, fields []ComputedField) {
	ft.computed[entity] = fields
}

func (ft FieldTransformations) Entity(entity string) (NameResolver, bool) {
	r, ok := ft.renames[entity]
	return r, ok
}

func (ft FieldTransformations) Computed(entity string) []ComputedField {
	return ft.computed[entity]
}

// Resolve maps a source field name to its destination name for
// entity, falling back to the original name when entity or the field
// carries no rename.
func (ft FieldTransformations) Resolve(entity, name string) string {
	if r, ok := ft.renames[entity]; ok {
		return r.Resolve(name)
	}
	return name
}

// ReverseResolve maps a destination field name back to its source
// name for entity, falling back to the original name.
func (ft FieldTransformations) ReverseResolve(entity, name string) string {
	if r, ok := ft.renames[entity]; ok {
		return r.ReverseResolve(name)
	}
	return name
}

func (ft FieldTransformations) IsEmpty() bool {
	return len(ft.renames) == 0 && len(ft.computed) == 0
}

func (ft FieldTransformations) Contains(entity string) bool {
	_, ok := ft.renames[entity]
	return ok
}
