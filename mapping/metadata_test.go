package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/expr"
	"github.com/dataflux/dataflux/value"
)

func TestNameResolverBidirectionalCaseInsensitive(t *testing.T) {
	r := NewNameResolver(map[string]string{"Old_Name": "New_Name"})
	require.Equal(t, "new_name", r.Resolve("old_name"))
	require.Equal(t, "old_name", r.ReverseResolve("NEW_NAME"))
	require.Equal(t, "unmapped", r.Resolve("unmapped"))
}

func TestFieldTransformationsFromPipelineSplitsRenamesAndComputed(t *testing.T) {
	transforms := []FieldTransformation{
		{Target: "customer_name", Expression: expr.Identifier{Name: "name"}},
		{Target: "total", Expression: expr.Binary{
			Op:   expr.OpAdd,
			Left: expr.Identifier{Name: "subtotal"},
			Right: expr.Identifier{Name: "tax"},
		}},
	}
	ft := FieldTransformationsFromPipeline("orders", transforms)

	require.Equal(t, "customer_name", ft.Resolve("orders", "name"))
	computed := ft.Computed("orders")
	require.Len(t, computed, 1)
	require.Equal(t, "total", computed[0].Name)
}

func TestTransformationMetadataResolvesForeignField(t *testing.T) {
	transforms := []FieldTransformation{
		{Target: "customer_email", Expression: expr.DotPath{Segments: []string{"customers", "email"}}},
	}
	ft := FieldTransformationsFromPipeline("orders", transforms)
	entities := EntityNameResolver("orders", "orders", map[string]string{"customers": "customers"})
	meta := NewTransformationMetadata(entities, ft)

	refs := meta.GetCrossEntityRefsFor("customers")
	require.Len(t, refs, 1)
	require.Equal(t, "email", refs[0].Field)

	target, ok := meta.ResolveForeignField("customers", "email")
	require.True(t, ok)
	require.Equal(t, "customer_email", target)

	row := value.RowData{}
	row.Set("customer_email", value.String("a@example.com"), value.VarChar)
	v, ok := expr.Evaluate(expr.DotPath{Segments: []string{"customers", "email"}}, row, meta, nil)
	require.True(t, ok)
	s, _ := v.AsString()
	require.Equal(t, "a@example.com", s)
}

func TestExtractCrossEntityRefsClearsTargetInsideFunctionArgs(t *testing.T) {
	transforms := []FieldTransformation{
		{Target: "label", Expression: expr.FunctionCall{
			Name: "concat",
			Args: []expr.Node{expr.DotPath{Segments: []string{"customers", "name"}}},
		}},
	}
	ft := FieldTransformationsFromPipeline("orders", transforms)
	meta := NewTransformationMetadata(NameResolver{}, ft)

	refs := meta.GetCrossEntityRefsFor("customers")
	require.Len(t, refs, 1)
	require.Nil(t, refs[0].Target)
}
