// Package graph expands task invocations into per-replica instance bindings
// and builds the validated channel connectivity graph. It is decoupled from
// the C++ front end: its inputs are plain records produced by the syntax
// accessor, so the whole-graph reasoning is testable without a parser.
package graph

import (
	"github.com/hls-tools/taskcc/internal/diag"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// ArgKind is the syntactic form of an actual argument at an invoke site.
type ArgKind int

const (
	// ArgVar is a direct variable reference.
	ArgVar ArgKind = iota
	// ArgIndexed is an indexing expression into a fixed-size array with a
	// compile-time index.
	ArgIndexed
	// ArgInt is a compile-time-evaluable integer.
	ArgInt
	// ArgSeq is the sequence marker, bound to the replica ordinal.
	ArgSeq
	// ArgUnknown is anything the front end could not recognize.
	ArgUnknown
)

// ArgExpr is one actual argument of an invocation, already reduced to the
// forms the expander understands.
type ArgExpr struct {
	Kind  ArgKind
	Name  string // ArgVar: variable name
	Base  string // ArgIndexed: array variable name
	Index int64  // ArgIndexed: compile-time index
	Int   int64  // ArgInt: evaluated value
	Loc   diag.Loc
}

// InvokeSite is one invocation call site with its compile-time arguments
// resolved. VecLen is 1 for non-vectorized invocations. Name is the optional
// explicit instance name; empty means unnamed.
type InvokeSite struct {
	Step   int
	IsVec  bool
	VecLen int64
	Name   string
	Callee string
	Args   []ArgExpr
	Loc    diag.Loc
}

// ParamSig is one declared parameter of a callee task.
type ParamSig struct {
	Name string
	Info tasktype.Info
}

// TaskSig is the signature of a task as seen by the expander.
type TaskSig struct {
	Name   string
	Params []ParamSig
}

// ChannelDecl is one declared channel. Array declarations are flattened to
// one ChannelDecl per element before they reach the builder, named with the
// base[index] scheme.
type ChannelDecl struct {
	Name  string
	Depth uint64
	Elem  string
	Loc   diag.Loc
}

// VarInfo is what the expander needs to know about a variable visible at an
// invoke site: whether it is array-typed, and the element count if so.
type VarInfo struct {
	IsArray bool
	Len     int64
}
