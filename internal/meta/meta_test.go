package meta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentShape(t *testing.T) {
	doc := New()
	doc.Ports = append(doc.Ports, Port{Name: "mem", Cat: "mmap", Width: 32, Type: "float*"})
	depth := uint64(2)
	doc.Fifos["q"] = &Fifo{
		Depth:      &depth,
		ProducedBy: &Edge{Task: "producer", Ordinal: 0},
		ConsumedBy: &Edge{Task: "consumer", Ordinal: 0},
	}
	doc.Tasks["producer"] = []*Instance{{
		Step: 0,
		Args: map[string]Arg{"out": {Cat: "ostream", Arg: "q"}},
	}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// The exact field names and nesting are a downstream contract.
	assert.JSONEq(t, `{
		"ports": [{"name": "mem", "cat": "mmap", "width": 32, "type": "float*"}],
		"fifos": {"q": {"depth": 2, "produced_by": ["producer", 0], "consumed_by": ["consumer", 0]}},
		"tasks": {"producer": [{"step": 0, "args": {"out": {"cat": "ostream", "arg": "q"}}}]}
	}`, string(data))
}

func TestEmptyDocumentCollections(t *testing.T) {
	data, err := json.Marshal(New())
	require.NoError(t, err)
	// Empty collections marshal as [] and {}, never null.
	assert.JSONEq(t, `{"ports": [], "fifos": {}, "tasks": {}}`, string(data))
}

func TestEdgeRoundTrip(t *testing.T) {
	data, err := json.Marshal(Edge{Task: "worker", Ordinal: 3})
	require.NoError(t, err)
	assert.Equal(t, `["worker",3]`, string(data))

	var e Edge
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, Edge{Task: "worker", Ordinal: 3}, e)
}

func TestBoundaryFifoOmitsDepth(t *testing.T) {
	doc := New()
	doc.Fifos["in"] = &Fifo{ConsumedBy: &Edge{Task: "consumer", Ordinal: 0}}
	data, err := json.Marshal(doc.Fifos)
	require.NoError(t, err)
	assert.JSONEq(t, `{"in": {"consumed_by": ["consumer", 0]}}`, string(data))
}

func TestScalarLiteral(t *testing.T) {
	assert.Equal(t, "64'd0", ScalarLiteral(0))
	assert.Equal(t, "64'd42", ScalarLiteral(42))
	// Negative values keep their two's-complement bit pattern.
	assert.Equal(t, "64'd18446744073709551615", ScalarLiteral(-1))
}

func TestInstanceOmitsEmptyNameAndArgs(t *testing.T) {
	data, err := json.Marshal(&Instance{Step: -1, Args: map[string]Arg{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"step": -1}`, string(data))
}
