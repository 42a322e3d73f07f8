// Package meta models the structural description exported to downstream
// place-and-route and RTL tooling. The JSON shape of Document is a
// compatibility contract: field names and nesting must not change.
package meta

import (
	"encoding/json"
	"fmt"
)

// Port is one externally visible interface element of the top-level kernel.
type Port struct {
	Name  string `json:"name"`
	Cat   string `json:"cat"` // mmap, async_mmap or scalar
	Width int    `json:"width"`
	Type  string `json:"type"`
}

// Edge records which instance produces or consumes a channel. It marshals
// as the two-element array [task_name, instance_ordinal].
type Edge struct {
	Task    string
	Ordinal int
}

func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.Task, e.Ordinal})
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Task); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Ordinal)
}

// Fifo is one retained channel. Depth is nil for boundary channels that are
// declared by an enclosing task rather than locally.
type Fifo struct {
	Depth      *uint64 `json:"depth,omitempty"`
	ProducedBy *Edge   `json:"produced_by,omitempty"`
	ConsumedBy *Edge   `json:"consumed_by,omitempty"`
}

// Arg is one bound argument of an instance.
type Arg struct {
	Cat string `json:"cat"`
	Arg string `json:"arg"`
}

// Instance is one placement of a callee task in the graph.
type Instance struct {
	Step int            `json:"step"`
	Name string         `json:"name,omitempty"`
	Args map[string]Arg `json:"args,omitempty"`
}

// Document is the aggregate artifact for one processed upper-level task.
type Document struct {
	Ports []Port                 `json:"ports"`
	Fifos map[string]*Fifo       `json:"fifos"`
	Tasks map[string][]*Instance `json:"tasks"`
}

// New returns an empty document with initialized collections.
func New() *Document {
	return &Document{
		Ports: []Port{},
		Fifos: map[string]*Fifo{},
		Tasks: map[string][]*Instance{},
	}
}

// Fifo returns the channel entry for name, creating it on first use.
func (d *Document) Fifo(name string) *Fifo {
	f, ok := d.Fifos[name]
	if !ok {
		f = &Fifo{}
		d.Fifos[name] = f
	}
	return f
}

// ScalarLiteral renders a compile-time integer binding in the 64-bit
// literal form the downstream tooling expects. Negative values keep their
// two's-complement bit pattern.
func ScalarLiteral(v int64) string {
	return fmt.Sprintf("64'd%d", uint64(v))
}
