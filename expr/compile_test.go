package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/value"
)

func TestCompileRewritesDefineReference(t *testing.T) {
	n := DotPath{Segments: []string{"define", "tax_rate"}}
	defines := map[string]value.Value{"tax_rate": value.Float64(0.07)}

	out, err := Compile(n, defines, nil)
	require.NoError(t, err)
	lit, ok := out.(Literal)
	require.True(t, ok)
	f, _ := lit.Value.AsF64()
	require.Equal(t, 0.07, f)
}

func TestCompileLeavesUnresolvedDefineAsDotPath(t *testing.T) {
	n := DotPath{Segments: []string{"define", "unknown"}}
	out, err := Compile(n, map[string]value.Value{}, nil)
	require.NoError(t, err)
	_, ok := out.(DotPath)
	require.True(t, ok)
}

func TestCompileEnvSingleArgResolvesEagerly(t *testing.T) {
	n := FunctionCall{Name: "env", Args: []Node{Literal{Value: value.String("HOST")}}}
	env := func(name string) (string, bool) {
		if name == "HOST" {
			return "db.internal", true
		}
		return "", false
	}
	out, err := Compile(n, nil, env)
	require.NoError(t, err)
	lit, ok := out.(Literal)
	require.True(t, ok)
	s, _ := lit.Value.AsString()
	require.Equal(t, "db.internal", s)
}

func TestCompileEnvSingleArgMissingVarFailsCompile(t *testing.T) {
	n := FunctionCall{Name: "env", Args: []Node{Literal{Value: value.String("MISSING")}}}
	env := func(string) (string, bool) { return "", false }
	_, err := Compile(n, nil, env)
	require.Error(t, err)
}

func TestCompileEnvTwoArgFallsBackWithoutFailingCompile(t *testing.T) {
	n := FunctionCall{Name: "env", Args: []Node{Literal{Value: value.String("MISSING")}, Literal{Value: value.String("default")}}}
	env := func(string) (string, bool) { return "", false }
	out, err := Compile(n, nil, env)
	require.NoError(t, err)
	lit, ok := out.(Literal)
	require.True(t, ok)
	s, _ := lit.Value.AsString()
	require.Equal(t, "default", s)
}

func TestCompileRecursesIntoBinaryOperands(t *testing.T) {
	n := Binary{Op: OpAdd, Left: DotPath{Segments: []string{"define", "x"}}, Right: Literal{Value: value.Int64(1)}}
	out, err := Compile(n, map[string]value.Value{"x": value.Int64(9)}, nil)
	require.NoError(t, err)
	bin := out.(Binary)
	lit := bin.Left.(Literal)
	i, _ := lit.Value.Int()
	require.Equal(t, int64(9), i)
}
