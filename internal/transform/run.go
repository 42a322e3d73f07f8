package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hls-tools/taskcc/internal/diag"
	"github.com/hls-tools/taskcc/internal/policy"
	"github.com/hls-tools/taskcc/internal/validator"
)

// Run transforms one source file and writes the rewritten source plus one
// metadata file per upper-level task into the configured output directory.
// No artifact is written when any task fails.
func (t *Transformer) Run(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if t.Verbose {
		fmt.Fprintf(os.Stderr, "Transforming %s\n", path)
	}

	result, err := t.TransformBytes(path, content)
	if err != nil {
		return err
	}

	errCount := 0
	for _, task := range result.Tasks {
		for _, d := range task.Diags {
			fmt.Fprintln(os.Stderr, d)
			if d.Severity == diag.Error {
				errCount++
			}
		}
	}
	if result.Failed() {
		return fmt.Errorf("%s: transform failed with %d error(s)", path, errCount)
	}

	v, err := validator.New()
	if err != nil {
		return fmt.Errorf("loading metadata schema: %w", err)
	}
	for name, doc := range result.Metadata {
		if verr := v.Validate(doc); verr != nil {
			return fmt.Errorf("metadata for task %q failed validation: %w", name, verr)
		}
		if t.Verbose {
			fmt.Fprintf(os.Stderr, "  task %s: %d port(s), %d channel(s), %d subtask(s)\n",
				name, len(doc.Ports), len(doc.Fifos), len(doc.Tasks))
		}
	}

	if err := t.runPolicy(result); err != nil {
		return err
	}

	return t.writeOutputs(path, result)
}

// runPolicy evaluates the rule set over every extracted document. Rule
// severities can be overridden or silenced through configuration.
func (t *Transformer) runPolicy(result *Result) error {
	engine, err := policy.New(t.Cfg.PolicyDir)
	if err != nil {
		return fmt.Errorf("loading policy rules: %w", err)
	}
	failed := false
	for name, doc := range result.Metadata {
		pr, err := engine.Evaluate(name, doc)
		if err != nil {
			return fmt.Errorf("evaluating policy for task %q: %w", name, err)
		}
		for _, viol := range pr.Violations {
			severity := viol.Severity
			if override, ok := t.Cfg.Rules[viol.Rule]; ok {
				severity = override
			}
			if severity == "off" {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %s: %s [%s]\n", severity, viol.Task, viol.Message, viol.Rule)
			if severity == "error" {
				failed = true
			}
		}
	}
	if failed {
		return fmt.Errorf("policy violations with error severity")
	}
	return nil
}

func (t *Transformer) writeOutputs(path string, result *Result) error {
	outDir := t.Cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outSrc := filepath.Join(outDir, filepath.Base(path))
	if err := os.WriteFile(outSrc, result.Rewritten, 0o644); err != nil {
		return fmt.Errorf("writing rewritten source: %w", err)
	}
	if t.Verbose {
		fmt.Fprintf(os.Stderr, "  wrote %s\n", outSrc)
	}

	for name, doc := range result.Metadata {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding metadata for task %q: %w", name, err)
		}
		outMeta := filepath.Join(outDir, name+".json")
		if err := os.WriteFile(outMeta, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing metadata for task %q: %w", name, err)
		}
		if t.Verbose {
			fmt.Fprintf(os.Stderr, "  wrote %s\n", outMeta)
		}
	}
	return nil
}
