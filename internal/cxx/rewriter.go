package cxx

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Rewriter is the source rewriting sink: it collects byte-range edits
// against the original content and applies them back-to-front, so node
// offsets from the parse stay valid while edits accumulate.
type Rewriter struct {
	content []byte
	edits   []edit
}

type edit struct {
	start, end uint32
	text       string
	seq        int
}

// NewRewriter returns a rewriter over the given source.
func NewRewriter(content []byte) *Rewriter {
	return &Rewriter{content: content}
}

// Replace substitutes the node's source range with text.
func (r *Rewriter) Replace(node *sitter.Node, text string) {
	r.ReplaceRange(node.StartByte(), node.EndByte(), text)
}

// ReplaceRange substitutes the byte range [start, end) with text.
func (r *Rewriter) ReplaceRange(start, end uint32, text string) {
	r.edits = append(r.edits, edit{start: start, end: end, text: text, seq: len(r.edits)})
}

// InsertBefore inserts text at the node's start.
func (r *Rewriter) InsertBefore(node *sitter.Node, text string) {
	r.ReplaceRange(node.StartByte(), node.StartByte(), text)
}

// InsertAfter inserts text just past the node's end.
func (r *Rewriter) InsertAfter(node *sitter.Node, text string) {
	r.ReplaceRange(node.EndByte(), node.EndByte(), text)
}

// Apply materializes the rewritten source. Edits at distinct ranges are
// applied independently; edits anchored at the same position keep their
// insertion order.
func (r *Rewriter) Apply() []byte {
	edits := make([]edit, len(r.edits))
	copy(edits, r.edits)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start > edits[j].start
		}
		return edits[i].seq > edits[j].seq
	})

	out := make([]byte, len(r.content))
	copy(out, r.content)
	for _, e := range edits {
		var next []byte
		next = append(next, out[:e.start]...)
		next = append(next, e.text...)
		next = append(next, out[e.end:]...)
		out = next
	}
	return out
}
