package mapping

import "github.com/dataflux/dataflux/expr"

// CrossEntityReference is one `entity.field` access found inside a
// computed field's expression, plus the destination field it feeds
// (nil when found inside a nested, non-top-level position such as a
// function argument).
type CrossEntityReference struct {
	Entity string
	Field  string
	Target *string
}

// TransformationMetadata is the complete mapping surface for a single
// pipeline: entity name translation, field renames/computed fields
// per entity, and an index of cross-entity references grouped by the
// entity they touch. It implements expr.ForeignFieldResolver so the
// evaluator and type inference can resolve `entity.field` paths
// without importing this package.
type TransformationMetadata struct {
	Entities      NameResolver
	Fields        FieldTransformations
	ForeignFields map[string][]CrossEntityReference
}

// NewTransformationMetadata builds a TransformationMetadata from an
// entity resolver and the field transformations for the pipeline's
// destination entity, deriving the cross-entity reference index from
// every computed field's expression tree.
func NewTransformationMetadata(entities NameResolver, fields FieldTransformations) TransformationMetadata {
	return TransformationMetadata{
		Entities:      entities,
		Fields:        fields,
		ForeignFields: extractAllCrossEntityRefs(fields),
	}
}

// GetComputedFields returns the computed fields declared for entity.
func (m TransformationMetadata) GetComputedFields(entity string) []ComputedField {
	return m.Fields.Computed(entity)
}

// GetCrossEntityRefsFor returns the cross-entity references that
// touch entity, in discovery order.
func (m TransformationMetadata) GetCrossEntityRefsFor(entity string) []CrossEntityReference {
	return m.ForeignFields[entity]
}

// ResolveForeignField implements expr.ForeignFieldResolver: given the
// entity and column named by a DotPath, it reports the row-local
// field that actually carries the joined value, if this metadata
// tracked a reference to it.
func (m TransformationMetadata) ResolveForeignField(entity, key string) (string, bool) {
	for _, ref := range m.ForeignFields[entity] {
		if ref.Field == key && ref.Target != nil {
			return *ref.Target, true
		}
	}
	return "", false
}

var _ expr.ForeignFieldResolver = TransformationMetadata{}

func extractAllCrossEntityRefs(fields FieldTransformations) map[string][]CrossEntityReference {
	out := make(map[string][]CrossEntityReference)
	for _, computedList := range fields.computed {
		for _, c := range computedList {
			var found []CrossEntityReference
			target := c.Name
			extractCrossEntityRefs(c.Expression, &target, &found)
			for _, ref := range found {
				out[ref.Entity] = append(out[ref.Entity], ref)
			}
		}
	}
	return out
}

// extractCrossEntityRefs walks n and appends every entity.field
// DotPath reference it finds to out, carrying target through to every
// reference found at or below the top level of a single transform,
// but clearing it once recursion crosses into a function call's
// arguments (a nested reference no longer directly populates target).
func extractCrossEntityRefs(n expr.Node, target *string, out *[]CrossEntityReference) {
	switch t := n.(type) {
	case expr.DotPath:
		if len(t.Segments) >= 2 {
			*out = append(*out, CrossEntityReference{
				Entity: t.Segments[0],
				Field:  t.Segments[1],
				Target: target,
			})
		}
	case expr.Binary:
		extractCrossEntityRefs(t.Left, target, out)
		extractCrossEntityRefs(t.Right, target, out)
	case expr.Unary:
		extractCrossEntityRefs(t.Operand, target, out)
	case expr.FunctionCall:
		for _, a := range t.Args {
			extractCrossEntityRefs(a, nil, out)
		}
	case expr.Array:
		for _, e := range t.Elements {
			extractCrossEntityRefs(e, target, out)
		}
	case expr.When:
		for _, b := range t.Branches {
			extractCrossEntityRefs(b.Condition, target, out)
			extractCrossEntityRefs(b.Value, target, out)
		}
		if t.Else != nil {
			extractCrossEntityRefs(t.Else, target, out)
		}
	case expr.IsNull:
		extractCrossEntityRefs(t.Operand, target, out)
	case expr.IsNotNull:
		extractCrossEntityRefs(t.Operand, target, out)
	case expr.Grouped:
		extractCrossEntityRefs(t.Operand, target, out)
	}
}
