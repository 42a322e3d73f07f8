package transform

import (
	"bytes"
	"fmt"

	"github.com/hls-tools/taskcc/internal/cxx"
	"github.com/hls-tools/taskcc/internal/hostgen"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// HostGlue rewrites the top-level task's body into host-side glue that
// programs an accelerator and round-trips its buffers, leaving the rest of
// the translation unit intact. The kernel to target is the configured top.
func (t *Transformer) HostGlue(path string, content []byte) ([]byte, error) {
	if t.Cfg.Top == "" {
		return nil, fmt.Errorf("no top-level task configured")
	}

	f, err := cxx.ParseBytes(path, content)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cls := tasktype.NewClassifier(t.Cfg.Namespace)
	cls.ConstResolver = f.ConstValue

	var top *cxx.FuncDecl
	for _, fn := range f.Functions() {
		if fn.Name == t.Cfg.Top {
			top = fn
			break
		}
	}
	if top == nil {
		return nil, fmt.Errorf("top-level task %q not found in %s", t.Cfg.Top, path)
	}
	body := top.Body()
	if body == nil {
		return nil, fmt.Errorf("top-level task %q has no body", t.Cfg.Top)
	}

	params, err := classifyParams(cls, top)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", t.Cfg.Top, err)
	}

	kernel := hostgen.Kernel{Name: t.Cfg.Top, Params: params}
	pre := string(content[:body.StartByte()])
	post := string(content[body.EndByte():])

	var buf bytes.Buffer
	if err := hostgen.Emit(&buf, kernel, pre, post); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
