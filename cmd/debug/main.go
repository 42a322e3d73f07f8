// debug dumps the parse tree of a C++ file, or of a built-in invocation
// snippet when no file is given. Useful when a call site is not recognized:
// compare the node types and field names here against what the front end
// walks.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

func main() {
	source := []byte(`void top(tapa::mmap<int> a, int n) {
  tapa::stream<int, 2> q("q");
  tapa::task()
      .invoke<tapa::join>(producer, a, q, n)
      .invoke<tapa::join, 3>(worker, q, tapa::seq());
}`)
	if len(os.Args) > 1 {
		content, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		source = content
	}

	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer tree.Close()

	dump(tree.RootNode(), source, 0)
}

func dump(n *sitter.Node, source []byte, depth int) {
	indent := strings.Repeat("  ", depth)
	text := n.Content(source)
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	text = strings.ReplaceAll(text, "\n", "\\n")
	fmt.Printf("%s%s %q\n", indent, n.Type(), text)
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() {
			continue
		}
		if field := n.FieldNameForChild(i); field != "" {
			fmt.Printf("%s  [field=%s]\n", indent, field)
		}
		dump(child, source, depth+1)
	}
}
