// Package transform drives the source-to-source pass: it classifies every
// task in a translation unit, extracts and validates the task graph of each
// upper-level task, synthesizes interface directives and body stubs, and
// produces the rewritten source plus one metadata document per upper-level
// task.
package transform

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hls-tools/taskcc/internal/config"
	"github.com/hls-tools/taskcc/internal/cxx"
	"github.com/hls-tools/taskcc/internal/diag"
	"github.com/hls-tools/taskcc/internal/graph"
	"github.com/hls-tools/taskcc/internal/meta"
	"github.com/hls-tools/taskcc/internal/synth"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// Transformer applies the pass to one translation unit at a time.
type Transformer struct {
	Cfg     *config.Config
	Verbose bool
}

// New returns a Transformer for the given configuration.
func New(cfg *config.Config) *Transformer {
	return &Transformer{Cfg: cfg}
}

// TaskResult is the outcome of processing one function.
type TaskResult struct {
	Name  string
	Level synth.Level
	// Doc is the finalized metadata document for an upper-level task that
	// validated cleanly; nil otherwise.
	Doc   *meta.Document
	Diags []diag.Diagnostic
}

// Failed reports whether the task accumulated any error diagnostic.
func (r TaskResult) Failed() bool {
	for _, d := range r.Diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

// Result is the outcome of one translation unit.
type Result struct {
	// Rewritten is the transformed source; nil when any task failed, since
	// no artifact may be emitted for a failed task.
	Rewritten []byte
	Tasks     []TaskResult
	// Metadata maps each successfully processed upper-level task to its
	// document.
	Metadata map[string]*meta.Document
}

// Failed reports whether any task in the unit failed.
func (r *Result) Failed() bool {
	for _, t := range r.Tasks {
		if t.Failed() {
			return true
		}
	}
	return false
}

// TransformBytes runs the pass over source held in memory. path is used for
// diagnostics only.
func (t *Transformer) TransformBytes(path string, content []byte) (*Result, error) {
	f, err := cxx.ParseBytes(path, content)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ns := t.Cfg.Namespace
	cls := tasktype.NewClassifier(ns)
	cls.ConstResolver = f.ConstValue

	funcs := f.Functions()

	// Signatures of every resolvable task, for callee lookup. Functions
	// whose parameter list fails classification stay unresolvable.
	sigs := map[string]*graph.TaskSig{}
	for _, fn := range funcs {
		params, perr := classifyParams(cls, fn)
		if perr != nil {
			continue
		}
		sigs[fn.Name] = &graph.TaskSig{Name: fn.Name, Params: params}
	}

	// Names referenced as callees from any invocation site. A function that
	// is never invoked and has no dialect-typed parameter is a plain helper
	// and must pass through untouched.
	callees := map[string]bool{}
	for _, fn := range funcs {
		body := fn.Body()
		if body == nil || !f.HasTaskInvocation(body, ns) {
			continue
		}
		for _, inv := range f.Invokes(body, ns) {
			if len(inv.Args) == 0 {
				continue
			}
			if c := inv.Args[0]; c.Type() == "identifier" || c.Type() == "qualified_identifier" {
				callees[f.Text(c)] = true
			}
		}
	}

	rw := cxx.NewRewriter(content)
	result := &Result{Metadata: map[string]*meta.Document{}}

	for _, fn := range funcs {
		body := fn.Body()
		if body == nil {
			continue
		}
		bag := &diag.Bag{}
		tr := TaskResult{Name: fn.Name, Level: synth.Leaf}

		params, perr := classifyParams(cls, fn)
		if perr != nil {
			reportParamError(bag, f, fn, perr)
			tr.Diags = bag.All()
			result.Tasks = append(result.Tasks, tr)
			continue
		}

		if f.HasTaskInvocation(body, ns) {
			level := synth.Middle
			if fn.Name == t.Cfg.Top {
				level = synth.Top
			}
			tr.Level = level
			doc := t.processUpper(f, cls, rw, fn, params, level, sigs, bag)
			if doc != nil {
				result.Metadata[fn.Name] = doc
				tr.Doc = doc
			}
		} else if callees[fn.Name] || hasDialectParams(params) {
			t.processLeaf(rw, body, params)
		} else {
			continue
		}

		tr.Diags = bag.All()
		result.Tasks = append(result.Tasks, tr)
	}

	if !result.Failed() {
		result.Rewritten = rw.Apply()
	}
	return result, nil
}

// hasDialectParams reports whether any parameter is stream-, mmap-, or
// sequence-typed. Such a function is a task even when no invocation site
// names it, e.g. when it is compiled on its own.
func hasDialectParams(params []graph.ParamSig) bool {
	for _, p := range params {
		if p.Info.Cat != tasktype.Scalar {
			return true
		}
	}
	return false
}

// classifyParams classifies every declared parameter of a function.
func classifyParams(cls *tasktype.Classifier, fn *cxx.FuncDecl) ([]graph.ParamSig, error) {
	params := make([]graph.ParamSig, 0, len(fn.Params))
	for _, p := range fn.Params {
		info, err := cls.Classify(p.TypeText)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		params = append(params, graph.ParamSig{Name: p.Name, Info: info})
	}
	return params, nil
}

func reportParamError(bag *diag.Bag, f *cxx.File, fn *cxx.FuncDecl, err error) {
	code := diag.UnsupportedType
	if errors.Is(err, tasktype.ErrArraySizeNotConstant) {
		code = diag.ArraySizeNotConstant
	}
	bag.Errorf(code, fn.Loc(), "task %q: %v", fn.Name, err)
}

// processUpper lowers one upper-level task: rewrites mmap parameters to
// base addresses, replaces the body with the directive stub, expands every
// invocation into the graph builder, and finalizes the metadata document.
func (t *Transformer) processUpper(
	f *cxx.File,
	cls *tasktype.Classifier,
	rw *cxx.Rewriter,
	fn *cxx.FuncDecl,
	params []graph.ParamSig,
	level synth.Level,
	sigs map[string]*graph.TaskSig,
	bag *diag.Bag,
) *meta.Document {
	body := fn.Body()

	for i, p := range params {
		if text, ok := synth.MmapParamRewrite(p); ok {
			rw.Replace(fn.Params[i].Node(), text)
		}
	}
	rw.Replace(body, synth.BodyStub(level, params))

	builder := graph.NewBuilder(fn.Name, bag)
	builder.SuffixVectorNames = t.Cfg.SuffixVectorNames
	for _, p := range params {
		builder.Vars[p.Name] = graph.VarInfo{
			IsArray: p.Info.Cat.IsArray(),
			Len:     p.Info.Len,
		}
	}

	if level == synth.Top {
		builder.AddPorts(params)
	}

	for _, decl := range f.LocalDecls(body) {
		ch, err := cls.ClassifyChannel(decl.TypeText)
		if errors.Is(err, tasktype.ErrNotChannel) {
			continue
		}
		loc := f.Loc(decl.Node())
		if err != nil {
			code := diag.UnsupportedType
			if errors.Is(err, tasktype.ErrArraySizeNotConstant) {
				code = diag.ArraySizeNotConstant
			}
			bag.Errorf(code, loc, "channel %q: %v", decl.Name, err)
			return nil
		}
		if ch.Len > 0 {
			for i := int64(0); i < ch.Len; i++ {
				builder.AddChannel(graph.ChannelDecl{
					Name:  tasktype.ArrayRef(decl.Name, i),
					Depth: ch.Depth,
					Elem:  ch.Elem,
					Loc:   loc,
				})
			}
			builder.Vars[decl.Name] = graph.VarInfo{IsArray: true, Len: ch.Len}
		} else {
			builder.AddChannel(graph.ChannelDecl{
				Name:  decl.Name,
				Depth: ch.Depth,
				Elem:  ch.Elem,
				Loc:   loc,
			})
			builder.Vars[decl.Name] = graph.VarInfo{}
		}
	}

	for _, inv := range f.Invokes(body, t.Cfg.Namespace) {
		site, ok := t.invokeSite(f, cls, inv, bag)
		if !ok {
			continue
		}
		builder.AddInvocation(site, sigs[site.Callee])
	}

	doc, ok := builder.Finalize()
	if !ok {
		return nil
	}

	if level == synth.Top {
		rw.InsertBefore(fn.Node(), synth.ExternCPrefix)
		rw.InsertAfter(fn.Node(), synth.ExternCSuffix)
	}
	return doc
}

// processLeaf inserts the leaf interface directives after the opening brace.
func (t *Transformer) processLeaf(rw *cxx.Rewriter, body *sitter.Node, params []graph.ParamSig) {
	block := synth.LeafPragmaBlock(params)
	start := body.StartByte() + 1 // just past '{'
	rw.ReplaceRange(start, start, block)
}
