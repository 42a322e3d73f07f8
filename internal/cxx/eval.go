package cxx

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// EvalInt evaluates a compile-time integer expression: literals, file-scope
// integer constants, unary minus, the usual binary arithmetic, and
// parenthesization. The second result is false when the expression is not
// compile-time evaluable.
func (f *File) EvalInt(node *sitter.Node) (int64, bool) {
	if node == nil {
		return 0, false
	}
	switch node.Type() {
	case "number_literal":
		return parseIntLiteral(f.Text(node))
	case "identifier", "qualified_identifier":
		v, ok := f.consts[stripSpaces(f.Text(node))]
		return v, ok
	case "parenthesized_expression":
		return f.EvalInt(node.NamedChild(0))
	case "unary_expression":
		operand := node.ChildByFieldName("argument")
		if operand == nil && node.NamedChildCount() > 0 {
			operand = node.NamedChild(int(node.NamedChildCount()) - 1)
		}
		v, ok := f.EvalInt(operand)
		if !ok {
			return 0, false
		}
		switch operatorOf(f, node) {
		case "-":
			return -v, true
		case "+":
			return v, true
		case "~":
			return ^v, true
		}
		return 0, false
	case "binary_expression":
		lhs, lok := f.EvalInt(node.ChildByFieldName("left"))
		rhs, rok := f.EvalInt(node.ChildByFieldName("right"))
		if !lok || !rok {
			return 0, false
		}
		switch operatorOf(f, node) {
		case "+":
			return lhs + rhs, true
		case "-":
			return lhs - rhs, true
		case "*":
			return lhs * rhs, true
		case "/":
			if rhs == 0 {
				return 0, false
			}
			return lhs / rhs, true
		case "%":
			if rhs == 0 {
				return 0, false
			}
			return lhs % rhs, true
		case "<<":
			return lhs << uint(rhs), true
		case ">>":
			return lhs >> uint(rhs), true
		}
		return 0, false
	case "char_literal":
		text := strings.Trim(f.Text(node), "'")
		if len(text) == 1 {
			return int64(text[0]), true
		}
		return 0, false
	}
	return 0, false
}

// StringLit returns the value of a string literal node.
func (f *File) StringLit(node *sitter.Node) (string, bool) {
	if node == nil || node.Type() != "string_literal" {
		return "", false
	}
	text := f.Text(node)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1], true
	}
	return text, true
}

// ConstValue resolves a file-scope integer constant by name.
func (f *File) ConstValue(name string) (int64, bool) {
	v, ok := f.consts[name]
	return v, ok
}

// collectConsts gathers file-scope `const`/`constexpr` integer bindings so
// that array sizes and depths spelled as named constants still evaluate.
func (f *File) collectConsts() map[string]int64 {
	consts := map[string]int64{}
	root := f.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() != "declaration" {
			continue
		}
		text := f.Text(decl)
		if !strings.Contains(text, "const") {
			continue
		}
		init := findDescendantOfType(decl, "init_declarator")
		if init == nil {
			continue
		}
		ident := declaratorIdentifier(init.ChildByFieldName("declarator"))
		value := init.ChildByFieldName("value")
		if ident == nil || value == nil {
			continue
		}
		if v, ok := f.EvalInt(value); ok {
			consts[f.Text(ident)] = v
		}
	}
	return consts
}

func findDescendantOfType(node *sitter.Node, wanted string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == wanted {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findDescendantOfType(node.NamedChild(i), wanted); found != nil {
			return found
		}
	}
	return nil
}

func operatorOf(f *File, node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return f.Text(op)
	}
	return ""
}

// parseIntLiteral handles C++ integer literal spellings, including suffixes
// and digit separators.
func parseIntLiteral(text string) (int64, bool) {
	text = strings.ReplaceAll(text, "'", "")
	text = strings.TrimRight(text, "uUlL")
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		// Large unsigned literals still carry a meaningful bit pattern.
		u, uerr := strconv.ParseUint(text, 0, 64)
		if uerr != nil {
			return 0, false
		}
		return int64(u), true
	}
	return v, true
}
