package transform

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hls-tools/taskcc/internal/cxx"
	"github.com/hls-tools/taskcc/internal/diag"
	"github.com/hls-tools/taskcc/internal/graph"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// invokeSite lowers one discovered call site into the expander's input form.
// Returns ok=false after reporting when the site is too malformed to expand.
func (t *Transformer) invokeSite(
	f *cxx.File,
	cls *tasktype.Classifier,
	inv cxx.Invoke,
	bag *diag.Bag,
) (graph.InvokeSite, bool) {
	loc := f.Loc(inv.Node)
	site := graph.InvokeSite{VecLen: 1, Loc: loc}

	// A bare invoke joins at step 0; the step is only spelled out when it
	// differs.
	if len(inv.TemplateArgs) > 0 {
		step, ok := t.parseStep(f, inv.TemplateArgs[0])
		if !ok {
			bag.Errorf(diag.UnexpectedInvocationShape, loc,
				"cannot evaluate execution step %q", inv.TemplateArgs[0])
			return site, false
		}
		site.Step = step
	}

	// A second template argument is the replication count of a vectorized
	// invocation. An explicit count of 1 is still vectorized.
	if len(inv.TemplateArgs) > 1 {
		n, ok := t.evalCount(f, inv.TemplateArgs[1])
		if !ok {
			bag.Errorf(diag.UnexpectedInvocationShape, loc,
				"cannot evaluate replication count %q", inv.TemplateArgs[1])
			return site, false
		}
		if n < 1 {
			bag.Errorf(diag.UnexpectedInvocationShape, loc,
				"replication count must be positive, got %d", n)
			return site, false
		}
		site.IsVec = true
		site.VecLen = n
	}

	if len(inv.Args) == 0 {
		bag.Errorf(diag.UnexpectedInvocationShape, loc,
			"invocation has no arguments")
		return site, false
	}
	callee := inv.Args[0]
	switch callee.Type() {
	case "identifier", "qualified_identifier":
		site.Callee = f.Text(callee)
	default:
		bag.Errorf(diag.UnexpectedInvocationShape, f.Loc(callee),
			"first invocation argument must name a task, got %s", callee.Type())
		return site, false
	}

	actuals := inv.Args[1:]
	// An explicit instance name is given as a string literal right after
	// the task.
	if len(actuals) > 0 {
		if name, ok := f.StringLit(actuals[0]); ok {
			site.Name = name
			actuals = actuals[1:]
		}
	}

	for _, node := range actuals {
		site.Args = append(site.Args, t.argExpr(f, cls, node, bag))
	}
	return site, true
}

// parseStep maps the first template argument to a step value: the join and
// detach markers, or a compile-time integer.
func (t *Transformer) parseStep(f *cxx.File, text string) (int, bool) {
	ns := t.Cfg.Namespace
	switch trimScoped(text) {
	case ns + "::join", "join":
		return 0, true
	case ns + "::detach", "detach":
		return -1, true
	}
	if v, ok := t.evalCount(f, text); ok {
		return int(v), true
	}
	return 0, false
}

func (t *Transformer) evalCount(f *cxx.File, text string) (int64, bool) {
	text = trimScoped(text)
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return v, true
	}
	return f.ConstValue(text)
}

// argExpr reduces one actual argument to an expander form. Unrecognized
// shapes become ArgUnknown so the expander can report them against the
// formal parameter they were bound to.
func (t *Transformer) argExpr(
	f *cxx.File,
	cls *tasktype.Classifier,
	node *sitter.Node,
	bag *diag.Bag,
) graph.ArgExpr {
	loc := f.Loc(node)
	switch node.Type() {
	case "identifier", "qualified_identifier":
		// A name that resolves to a collected integer constant is a scalar
		// literal, not a variable reference. Stream and mmap variables are
		// never in the constant table.
		if v, ok := f.EvalInt(node); ok {
			return graph.ArgExpr{Kind: graph.ArgInt, Int: v, Loc: loc}
		}
		return graph.ArgExpr{Kind: graph.ArgVar, Name: f.Text(node), Loc: loc}
	case "subscript_expression":
		base, index := cxx.SubscriptParts(node)
		if base == nil || base.Type() != "identifier" {
			return graph.ArgExpr{Kind: graph.ArgUnknown, Loc: loc}
		}
		v, ok := f.EvalInt(index)
		if !ok {
			bag.Errorf(diag.EvalNotConstant, loc,
				"array index %q is not a compile-time constant", f.Text(index))
			return graph.ArgExpr{Kind: graph.ArgUnknown, Loc: loc}
		}
		return graph.ArgExpr{
			Kind:  graph.ArgIndexed,
			Base:  f.Text(base),
			Index: v,
			Loc:   loc,
		}
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && cls.IsSeq(f.Text(fn)) {
			return graph.ArgExpr{Kind: graph.ArgSeq, Loc: loc}
		}
	}
	if v, ok := f.EvalInt(node); ok {
		return graph.ArgExpr{Kind: graph.ArgInt, Int: v, Loc: loc}
	}
	return graph.ArgExpr{Kind: graph.ArgUnknown, Loc: loc}
}

// trimScoped strips whitespace from a template argument spelling.
func trimScoped(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
