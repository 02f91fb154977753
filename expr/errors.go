package expr

import "fmt"

// SyntaxError is returned by Compile for structurally invalid trees
// (e.g. a builtin called with the wrong argument count).
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return "syntax error: " + e.Msg }

func errsyntaxf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// TypeError describes two branches of an expression that carry
// irreconcilable types. InferType does not return it: InferType
// reports an unresolvable type through its boolean result.
type TypeError struct {
	At  Node
	Msg string
}

func (e *TypeError) Error() string { return fmt.Sprintf("type error at %v: %s", e.At, e.Msg) }

func errtypef(n Node, format string, args ...any) error {
	return &TypeError{At: n, Msg: fmt.Sprintf(format, args...)}
}

// CompileError wraps a failure to resolve a required env() reference
// at compile time: a missing required var is a compile error, not a
// runtime-absent value.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return "compile error: " + e.Msg }
