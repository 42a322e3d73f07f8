package cxx

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Invoke is one discovered invocation call site: a member call named
// "invoke" on the dialect's task factory, with its compile-time template
// arguments and runtime argument list.
type Invoke struct {
	Node         *sitter.Node
	TemplateArgs []string
	Args         []*sitter.Node
}

// Invokes finds all invocation call sites inside a body, in source order
// (inner calls of a chain precede outer ones, matching evaluation order).
// namespace is the dialect namespace, e.g. "tapa".
func (f *File) Invokes(body *sitter.Node, namespace string) []Invoke {
	var invokes []Invoke
	f.collectInvokes(body, namespace, &invokes)
	return invokes
}

// collectInvokes visits children before the node itself so that chained
// invocations are reported in call order.
func (f *File) collectInvokes(node *sitter.Node, namespace string, out *[]Invoke) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		f.collectInvokes(node.Child(i), namespace, out)
	}
	if node.Type() != "call_expression" {
		return
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "field_expression" {
		return
	}
	field := fn.ChildByFieldName("field")
	if field == nil || !strings.HasPrefix(f.Text(field), "invoke") {
		return
	}
	if !f.rootedInTaskFactory(fn.ChildByFieldName("argument"), namespace) {
		return
	}
	inv := Invoke{Node: node}
	if tmpl := childOfType(field, "template_argument_list"); tmpl != nil {
		for i := 0; i < int(tmpl.NamedChildCount()); i++ {
			inv.TemplateArgs = append(inv.TemplateArgs, f.Text(tmpl.NamedChild(i)))
		}
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			child := args.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			inv.Args = append(inv.Args, child)
		}
	}
	*out = append(*out, inv)
}

// rootedInTaskFactory follows the object chain of a member call down to its
// base and accepts it when the base is a call to <namespace>::task().
func (f *File) rootedInTaskFactory(node *sitter.Node, namespace string) bool {
	factory := namespace + "::task"
	for node != nil {
		switch node.Type() {
		case "call_expression":
			fn := node.ChildByFieldName("function")
			if fn == nil {
				return false
			}
			if stripSpaces(f.Text(fn)) == factory {
				return true
			}
			if fn.Type() == "field_expression" {
				node = fn.ChildByFieldName("argument")
				continue
			}
			return false
		case "parenthesized_expression":
			node = node.NamedChild(0)
		default:
			return false
		}
	}
	return false
}

// HasTaskInvocation reports whether a body contains any invocation chain,
// which classifies the enclosing function as an upper-level task.
func (f *File) HasTaskInvocation(body *sitter.Node, namespace string) bool {
	return len(f.Invokes(body, namespace)) > 0
}

func childOfType(node *sitter.Node, wanted string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == wanted {
			return c
		}
	}
	return nil
}

// SubscriptParts splits a subscript expression into its base and index
// nodes, tolerating both grammar revisions of the index field.
func SubscriptParts(node *sitter.Node) (base, index *sitter.Node) {
	base = node.ChildByFieldName("argument")
	index = node.ChildByFieldName("index")
	if index == nil {
		if list := node.ChildByFieldName("indices"); list != nil && list.NamedChildCount() > 0 {
			index = list.NamedChild(0)
		}
	}
	if index == nil && node.NamedChildCount() > 1 {
		index = node.NamedChild(1)
	}
	return base, index
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
