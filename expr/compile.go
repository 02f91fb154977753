package expr

import (
	"strings"

	"github.com/dataflux/dataflux/value"
)

// EnvLookup resolves an environment variable name at expression
// compile time. It mirrors the `env(name[, default])` contract.
type EnvLookup func(name string) (string, bool)

// Compile lowers an already-parsed tree (produced by the out-of-scope
// textual DSL parser, which this package treats as an opaque Node
// tree of the same shape defined in node.go) into its final compiled
// form: `define.X` references are rewritten to their literal value,
// and one-argument `env(name)` calls are resolved eagerly, failing
// the whole compile if the variable is missing.
//
// defines maps a definition name (case-sensitive, as declared in the
// plan) to its literal value. env resolves environment variables; it
// may be nil, in which case a one-argument env call fails to compile
// and a two-argument one compiles to its default.
func Compile(n Node, defines map[string]value.Value, env EnvLookup) (Node, error) {
	if n == nil {
		return nil, nil
	}
	switch t := n.(type) {
	case Literal, Identifier:
		return t, nil
	case DotPath:
		if len(t.Segments) == 2 && strings.EqualFold(t.Segments[0], "define") {
			if v, ok := lookupDefine(defines, t.Segments[1]); ok {
				return Literal{Value: v}, nil
			}
			// Unresolved define reference remains a DotPath.
		}
		return t, nil
	case Binary:
		left, err := Compile(t.Left, defines, env)
		if err != nil {
			return nil, err
		}
		right, err := Compile(t.Right, defines, env)
		if err != nil {
			return nil, err
		}
		return Binary{Op: t.Op, Left: left, Right: right}, nil
	case Unary:
		operand, err := Compile(t.Operand, defines, env)
		if err != nil {
			return nil, err
		}
		return Unary{Op: t.Op, Operand: operand}, nil
	case FunctionCall:
		return compileFunctionCall(t, defines, env)
	case Array:
		elems := make([]Node, len(t.Elements))
		for i, e := range t.Elements {
			c, err := Compile(e, defines, env)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return Array{Elements: elems}, nil
	case When:
		branches := make([]WhenBranch, len(t.Branches))
		for i, b := range t.Branches {
			cond, err := Compile(b.Condition, defines, env)
			if err != nil {
				return nil, err
			}
			val, err := Compile(b.Value, defines, env)
			if err != nil {
				return nil, err
			}
			branches[i] = WhenBranch{Condition: cond, Value: val}
		}
		var elseNode Node
		if t.Else != nil {
			var err error
			elseNode, err = Compile(t.Else, defines, env)
			if err != nil {
				return nil, err
			}
		}
		return When{Branches: branches, Else: elseNode}, nil
	case IsNull:
		operand, err := Compile(t.Operand, defines, env)
		if err != nil {
			return nil, err
		}
		return IsNull{Operand: operand}, nil
	case IsNotNull:
		operand, err := Compile(t.Operand, defines, env)
		if err != nil {
			return nil, err
		}
		return IsNotNull{Operand: operand}, nil
	case Grouped:
		operand, err := Compile(t.Operand, defines, env)
		if err != nil {
			return nil, err
		}
		return Grouped{Operand: operand}, nil
	}
	return nil, errsyntaxf("unrecognized node %T", n)
}

func lookupDefine(defines map[string]value.Value, name string) (value.Value, bool) {
	if v, ok := defines[name]; ok {
		return v, true
	}
	for k, v := range defines {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return value.Value{}, false
}

func compileFunctionCall(f FunctionCall, defines map[string]value.Value, env EnvLookup) (Node, error) {
	args := make([]Node, len(f.Args))
	for i, a := range f.Args {
		c, err := Compile(a, defines, env)
		if err != nil {
			return nil, err
		}
		args[i] = c
	}
	if !strings.EqualFold(f.Name, "env") {
		return FunctionCall{Name: f.Name, Args: args}, nil
	}
	switch len(args) {
	case 1:
		name, ok := literalString(args[0])
		if !ok {
			return nil, errsyntaxf("env requires a string literal variable name")
		}
		if env == nil {
			return nil, &CompileError{Msg: "env(" + name + ") requires a variable but no environment was supplied"}
		}
		val, ok := env(name)
		if !ok {
			return nil, &CompileError{Msg: "required environment variable " + name + " is not set"}
		}
		return Literal{Value: value.String(val)}, nil
	case 2:
		name, ok := literalString(args[0])
		if !ok {
			return nil, errsyntaxf("env requires a string literal variable name")
		}
		if env != nil {
			if val, ok := env(name); ok {
				return Literal{Value: value.String(val)}, nil
			}
		}
		return args[1], nil
	default:
		return nil, errsyntaxf("env takes 1 or 2 arguments, got %d", len(args))
	}
}

func literalString(n Node) (string, bool) {
	lit, ok := n.(Literal)
	if !ok {
		return "", false
	}
	return lit.Value.AsString()
}
