// Package cxx is the syntax accessor over the C++ front end. It exposes only
// what the pass needs: function and parameter enumeration, type spellings
// for classification, invoke call-site discovery, compile-time integer and
// string evaluation, and byte-range source rewriting. Nothing outside this
// package touches tree-sitter.
package cxx

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/hls-tools/taskcc/internal/diag"
)

// File is one parsed translation unit.
type File struct {
	Path    string
	Content []byte

	tree   *sitter.Tree
	consts map[string]int64
}

// Parse reads and parses a C++ file.
func Parse(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseBytes(path, content)
}

// ParseBytes parses C++ source held in memory. path is used only for
// diagnostics.
func ParseBytes(path string, content []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f := &File{Path: path, Content: content, tree: tree}
	f.consts = f.collectConsts()
	return f, nil
}

// Close releases the parse tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
	}
}

// Root returns the translation-unit node.
func (f *File) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Text returns the source text of a node.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Content)
}

// Loc returns the 1-based source position of a node.
func (f *File) Loc(n *sitter.Node) diag.Loc {
	if n == nil {
		return diag.Loc{File: f.Path}
	}
	p := n.StartPoint()
	return diag.Loc{File: f.Path, Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

// FuncDecl is one global function definition.
type FuncDecl struct {
	Name   string
	Params []Param

	file *File
	node *sitter.Node
}

// Param is one declared parameter with its type spelling.
type Param struct {
	Name     string
	TypeText string

	node *sitter.Node
}

// Node returns the parameter_declaration node, for rewriting.
func (p Param) Node() *sitter.Node { return p.node }

// Node returns the function_definition node.
func (fd *FuncDecl) Node() *sitter.Node { return fd.node }

// Body returns the function body compound statement, or nil.
func (fd *FuncDecl) Body() *sitter.Node {
	return fd.node.ChildByFieldName("body")
}

// Loc returns the function's source position.
func (fd *FuncDecl) Loc() diag.Loc { return fd.file.Loc(fd.node) }

// Functions enumerates the global function definitions of the file, in
// source order.
func (f *File) Functions() []*FuncDecl {
	var funcs []*FuncDecl
	root := f.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "function_definition" {
			continue
		}
		if fd := f.functionDecl(child); fd != nil {
			funcs = append(funcs, fd)
		}
	}
	return funcs
}

func (f *File) functionDecl(node *sitter.Node) *FuncDecl {
	funcDeclarator := findDescendant(node.ChildByFieldName("declarator"), "function_declarator")
	if funcDeclarator == nil {
		return nil
	}
	nameNode := funcDeclarator.ChildByFieldName("declarator")
	if nameNode == nil {
		return nil
	}
	fd := &FuncDecl{
		Name: f.Text(nameNode),
		file: f,
		node: node,
	}
	paramList := funcDeclarator.ChildByFieldName("parameters")
	if paramList != nil {
		for i := 0; i < int(paramList.NamedChildCount()); i++ {
			pn := paramList.NamedChild(i)
			if pn.Type() != "parameter_declaration" {
				continue
			}
			fd.Params = append(fd.Params, f.param(pn))
		}
	}
	return fd
}

func (f *File) param(node *sitter.Node) Param {
	p := Param{node: node}
	ident := declaratorIdentifier(node.ChildByFieldName("declarator"))
	if ident == nil {
		p.TypeText = f.Text(node)
		return p
	}
	p.Name = f.Text(ident)
	// The type spelling is the parameter text with the declarator
	// identifier cut out, which keeps qualifiers on either side.
	start := node.StartByte()
	text := f.Text(node)
	head := text[:ident.StartByte()-start]
	tail := text[ident.EndByte()-start:]
	p.TypeText = strings.TrimSpace(head + tail)
	return p
}

// LocalDecl is one declaration statement inside a function body.
type LocalDecl struct {
	Name     string
	TypeText string

	node *sitter.Node
}

// Node returns the declaration node.
func (d LocalDecl) Node() *sitter.Node { return d.node }

// LocalDecls enumerates the declarations directly inside a body, in source
// order. Used to discover channel declarations of upper-level tasks.
func (f *File) LocalDecls(body *sitter.Node) []LocalDecl {
	var decls []LocalDecl
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		declarator := child.ChildByFieldName("declarator")
		ident := declaratorIdentifier(declarator)
		if typeNode == nil || ident == nil {
			continue
		}
		decls = append(decls, LocalDecl{
			Name:     f.Text(ident),
			TypeText: f.Text(typeNode),
			node:     child,
		})
	}
	return decls
}

// findDescendant walks declarator wrappers (pointer, reference, init) until
// it reaches a node of the wanted type.
func findDescendant(node *sitter.Node, wanted string) *sitter.Node {
	for node != nil {
		if node.Type() == wanted {
			return node
		}
		next := node.ChildByFieldName("declarator")
		if next == nil {
			if node.NamedChildCount() == 0 {
				return nil
			}
			next = node.NamedChild(0)
		}
		node = next
	}
	return nil
}

// declaratorIdentifier digs the declared identifier out of a declarator.
func declaratorIdentifier(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Type() {
		case "identifier", "field_identifier", "qualified_identifier":
			return node
		}
		next := node.ChildByFieldName("declarator")
		if next == nil {
			if node.NamedChildCount() == 0 {
				return nil
			}
			next = node.NamedChild(0)
		}
		node = next
	}
	return nil
}
