package graph

import (
	"sort"

	"github.com/hls-tools/taskcc/internal/diag"
	"github.com/hls-tools/taskcc/internal/meta"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// Builder accumulates the metadata document for one upper-level task. The
// enclosing task identity is explicit state, not ambient: one Builder per
// processed task, handed off complete through Finalize.
type Builder struct {
	// Task is the enclosing upper-level task being processed.
	Task string
	// Vars maps variable names visible at invoke sites (parameters and
	// local channel declarations of the enclosing task) to their shape.
	Vars map[string]VarInfo
	// SuffixVectorNames appends _<replica> to explicit instance names of
	// vectorized invocations instead of sharing one name.
	SuffixVectorNames bool

	diags *diag.Bag
	doc   *meta.Document
	decls map[string]ChannelDecl
}

// NewBuilder returns a builder for the given enclosing task, reporting into
// diags.
func NewBuilder(task string, diags *diag.Bag) *Builder {
	return &Builder{
		Task:  task,
		Vars:  map[string]VarInfo{},
		diags: diags,
		doc:   meta.New(),
		decls: map[string]ChannelDecl{},
	}
}

// AddPorts derives the externally visible ports from the top-level task's
// parameter list. Streams contribute no port entry; array categories are
// expanded one port per element.
func (b *Builder) AddPorts(params []ParamSig) {
	for _, p := range params {
		info := p.Info
		switch {
		case info.Cat.IsStream():
			// Streams surface through the fifos map once connected.
		case info.Cat.IsMmap():
			width, _ := tasktype.WidthOf(info.Elem)
			port := meta.Port{
				Cat:   info.Cat.MetaCat(),
				Width: width,
				Type:  info.Elem + "*",
			}
			if info.Cat.IsArray() {
				for i := int64(0); i < info.Len; i++ {
					port.Name = tasktype.ArrayRef(p.Name, i)
					b.doc.Ports = append(b.doc.Ports, port)
				}
			} else {
				port.Name = p.Name
				b.doc.Ports = append(b.doc.Ports, port)
			}
		default:
			width, _ := tasktype.WidthOf(info.Type)
			b.doc.Ports = append(b.doc.Ports, meta.Port{
				Name:  p.Name,
				Cat:   "scalar",
				Width: width,
				Type:  info.Type,
			})
		}
	}
}

// AddChannel registers one declared channel and its depth.
func (b *Builder) AddChannel(decl ChannelDecl) {
	depth := decl.Depth
	b.doc.Fifo(decl.Name).Depth = &depth
	b.decls[decl.Name] = decl
}

// AddInvocation expands one invoke call site into VecLen instances and
// registers their argument bindings and channel edges. A nil callee means
// the call target could not be statically resolved; the invocation is
// reported and skipped, processing of the task continues.
func (b *Builder) AddInvocation(site InvokeSite, callee *TaskSig) {
	if callee == nil {
		b.diags.Errorf(diag.UnexpectedInvocationShape, site.Loc,
			"unexpected invocation: cannot statically resolve callee %q", site.Callee)
		return
	}
	if len(site.Args) != len(callee.Params) {
		b.diags.Errorf(diag.UnexpectedInvocationShape, site.Loc,
			"invocation of %q has %d arguments for %d parameters",
			callee.Name, len(site.Args), len(callee.Params))
		return
	}
	vecLen := site.VecLen
	if vecLen < 1 {
		vecLen = 1
	}
	for iVec := int64(0); iVec < vecLen; iVec++ {
		b.addInstance(site, callee, iVec)
	}
}

func (b *Builder) addInstance(site InvokeSite, callee *TaskSig, iVec int64) {
	inst := &meta.Instance{Step: site.Step, Args: map[string]meta.Arg{}}
	if site.Name != "" {
		inst.Name = site.Name
		if b.SuffixVectorNames && site.IsVec && site.VecLen > 1 {
			inst.Name = tasktype.ArrayElem(site.Name, iVec)
		}
	}
	ordinal := len(b.doc.Tasks[callee.Name])
	b.doc.Tasks[callee.Name] = append(b.doc.Tasks[callee.Name], inst)

	registerArg := func(port string, cat tasktype.Category, bound string) {
		inst.Args[port] = meta.Arg{Cat: cat.MetaCat(), Arg: bound}
	}

	for i, arg := range site.Args {
		param := callee.Params[i]
		cat := param.Info.Cat

		if arg.Kind == ArgUnknown {
			b.diags.Errorf(diag.UnexpectedInvocationArgument, arg.Loc,
				"unexpected argument for %q of %q", param.Name, callee.Name)
			continue
		}
		if arg.Kind == ArgSeq {
			registerArg(param.Name, tasktype.SequenceArg, meta.ScalarLiteral(iVec))
			continue
		}
		if arg.Kind == ArgInt {
			registerArg(param.Name, tasktype.Scalar, meta.ScalarLiteral(arg.Int))
			continue
		}

		if cat.IsArray() {
			// Array-typed callee parameter bound to an array-typed actual:
			// one binding per slot, with the singular category.
			if arg.Kind != ArgVar {
				b.diags.Errorf(diag.UnexpectedInvocationArgument, arg.Loc,
					"array parameter %q of %q requires an array-typed variable", param.Name, callee.Name)
				continue
			}
			for slot := int64(0); slot < param.Info.Len; slot++ {
				bound := tasktype.ArrayRef(arg.Name, slot)
				port := tasktype.ArrayRef(param.Name, slot)
				switch cat {
				case tasktype.IStreamArray:
					b.registerConsumer(bound, callee.Name, ordinal, arg.Loc)
				case tasktype.OStreamArray:
					b.registerProducer(bound, callee.Name, ordinal, arg.Loc)
				}
				registerArg(port, cat, bound)
			}
			continue
		}

		bound := b.boundName(arg, iVec, site.IsVec)
		switch cat {
		case tasktype.IStream:
			b.registerConsumer(bound, callee.Name, ordinal, arg.Loc)
		case tasktype.OStream:
			b.registerProducer(bound, callee.Name, ordinal, arg.Loc)
		}
		registerArg(param.Name, cat, bound)
	}
}

// boundName resolves the channel or variable name an argument binds to.
// Under vectorization, an array-typed actual distributes its slots over the
// replicas, wrapping around when there are more replicas than slots.
func (b *Builder) boundName(arg ArgExpr, iVec int64, isVec bool) string {
	switch arg.Kind {
	case ArgIndexed:
		return tasktype.ArrayRef(arg.Base, arg.Index)
	case ArgVar:
		if v, ok := b.Vars[arg.Name]; ok && v.IsArray && isVec && v.Len > 0 {
			slot := iVec % v.Len
			if iVec >= v.Len {
				b.diags.Remarkf(diag.VectorIndexWraparound, arg.Loc,
					"invocation #%d accesses '%s[%d]'", iVec, arg.Name, slot)
			}
			return tasktype.ArrayRef(arg.Name, slot)
		}
		return arg.Name
	}
	return arg.Name
}

func (b *Builder) registerConsumer(name, task string, ordinal int, loc diag.Loc) {
	f := b.doc.Fifo(name)
	if f.ConsumedBy != nil {
		b.diags.Errorf(diag.ChannelConsumedTwice, loc,
			"stream '%s' consumed more than once", name)
	}
	f.ConsumedBy = &meta.Edge{Task: task, Ordinal: ordinal}
}

func (b *Builder) registerProducer(name, task string, ordinal int, loc diag.Loc) {
	f := b.doc.Fifo(name)
	if f.ProducedBy != nil {
		b.diags.Errorf(diag.ChannelProducedTwice, loc,
			"stream '%s' produced more than once", name)
	}
	f.ProducedBy = &meta.Edge{Task: task, Ordinal: ordinal}
}

// Finalize validates channel conservation and hands off the document.
// Unused declared channels are warned about and dropped. A declared channel
// with exactly one edge is a dangling error. Channels without a local
// declaration connect to the enclosing scope and are exempt. Returns nil
// when any error was accumulated for this task.
func (b *Builder) Finalize() (*meta.Document, bool) {
	names := make([]string, 0, len(b.doc.Fifos))
	for name := range b.doc.Fifos {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := b.doc.Fifos[name]
		decl, declared := b.decls[name]
		produced := f.ProducedBy != nil
		consumed := f.ConsumedBy != nil
		switch {
		case !produced && !consumed:
			if declared {
				b.diags.Warnf(diag.UnusedChannel, decl.Loc, "unused stream: %s", name)
			}
			delete(b.doc.Fifos, name)
		case declared && produced != consumed:
			if consumed {
				b.diags.Errorf(diag.ConsumedNotProduced, decl.Loc,
					"consumed but not produced stream: %s", name)
			} else {
				b.diags.Errorf(diag.ProducedNotConsumed, decl.Loc,
					"produced but not consumed stream: %s", name)
			}
		}
	}

	if b.diags.HasErrors() {
		return nil, false
	}
	return b.doc, true
}

// Document exposes the in-progress document. Intended for the interface
// synthesizer, which needs port and channel facts before Finalize.
func (b *Builder) Document() *meta.Document {
	return b.doc
}
