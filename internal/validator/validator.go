package validator

// The CUE validator is the contract guard between the transform pass and the
// downstream tooling that consumes the metadata document. If a field name or
// type drifts, the consumer would silently receive `undefined` and mis-route
// the task graph; validation turns that into an immediate, explicit failure.

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

// Validator validates metadata documents against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a Validator with the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate checks that the document conforms to the #Metadata contract.
// Returns nil if valid, or an error explaining what failed.
func (v *Validator) Validate(doc interface{}) error {
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates JSON bytes directly against the schema.
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling document as CUE: %w", dataValue.Err())
	}

	metaDef := v.schema.LookupPath(cue.ParsePath("#Metadata"))
	if metaDef.Err() != nil {
		return fmt.Errorf("looking up #Metadata definition: %w", metaDef.Err())
	}

	unified := metaDef.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("metadata schema validation failed: %w", err)
	}

	return nil
}

// ValidationErrors returns detailed information about all validation errors.
func (v *Validator) ValidationErrors(doc interface{}) []string {
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", dataValue.Err())}
	}

	metaDef := v.schema.LookupPath(cue.ParsePath("#Metadata"))
	if metaDef.Err() != nil {
		return []string{fmt.Sprintf("schema lookup error: %v", metaDef.Err())}
	}

	unified := metaDef.Unify(dataValue)
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}
