// Package hostgen emits the host-side dispatch source for the designated
// top-level kernel. The generated code locates a compiled bitstream through
// the process environment at run time and binds each backend-reported
// argument by name. This is templated text generation only; it depends on
// nothing but the type classification of the kernel's parameters.
package hostgen

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/hls-tools/taskcc/internal/graph"
	"github.com/hls-tools/taskcc/internal/tasktype"
)

// EnvBitstream is the generic bitstream-path environment variable; the
// kernel-specific one is EnvBitstream + "_" + kernel name.
const EnvBitstream = "TASKCC_BITSTREAM"

// Kernel is the top-level task the glue is generated for.
type Kernel struct {
	Name   string
	Params []graph.ParamSig
}

type bufferArg struct {
	ArgName   string // name reported by the backend (flattened for arrays)
	Var       string // host-side expression (base[i] for array elements)
	Direction string // ReadWrite, WriteOnly or ReadOnly
}

type scalarArg struct {
	Name string
}

type glueData struct {
	Kernel  string
	EnvApp  string
	EnvAny  string
	Buffers []bufferArg
	Scalars []scalarArg
	Streams []string
}

var glueTmpl = template.Must(template.New("glue").Parse(`{{range .Streams}}#error stream parameter '{{.}}' not supported on the host path yet
{{end}}#define TASKCC_BITSTREAM_APP "{{.EnvApp}}"
#define TASKCC_BITSTREAM_ANY "{{.EnvAny}}"
  const char* _bitstream = nullptr;
  if ((_bitstream = getenv(TASKCC_BITSTREAM_APP)) ||
      (_bitstream = getenv(TASKCC_BITSTREAM_ANY))) {
    fpga::Instance _instance(_bitstream);
    int _arg_index = 0;
    for (const auto& _arg_info : _instance.GetArgsInfo()) {
      if (false) {
{{- range .Buffers}}
      } else if (_arg_info.name == "{{.ArgName}}") {
        auto _arg = fpga::{{.Direction}}({{.Var}}.get(), {{.Var}}.size());
        _instance.AllocBuf(_arg_index, _arg);
        _instance.SetArg(_arg_index, _arg);
{{- end}}
{{- range .Scalars}}
      } else if (_arg_info.name == "{{.Name}}") {
        _instance.SetArg(_arg_index, {{.Name}});
{{- end}}
      } else {
        std::stringstream ss;
        ss << "unknown argument: " << _arg_info;
        throw std::runtime_error(ss.str());
      }
      ++_arg_index;
    }
    _instance.WriteToDevice();
    _instance.Exec();
    _instance.ReadFromDevice();
    _instance.Finish();
  } else {
` +
	// Backquotes cannot appear inside a raw string literal.
	"    throw std::runtime_error(\"no bitstream found; please set `\" TASKCC_BITSTREAM_APP\n" +
	"                             \"` or `\" TASKCC_BITSTREAM_ANY \"`\");\n" + `  }
`))

// Headers returns the include lines the glue body needs ahead of it.
func Headers() string {
	return strings.Join([]string{
		"#include <sstream>",
		"#include <stdexcept>",
		"#include <frt.h>",
		"", "",
	}, "\n")
}

// GlueBody renders the dispatch statements placed inside the kernel
// function's host-side body.
func GlueBody(w io.Writer, k Kernel) error {
	data := glueData{
		Kernel: k.Name,
		EnvApp: EnvBitstream + "_" + k.Name,
		EnvAny: EnvBitstream,
	}
	for _, p := range k.Params {
		info := p.Info
		switch {
		case info.Cat.IsStream():
			data.Streams = append(data.Streams, p.Name)
		case info.Cat.IsMmap():
			dir := "ReadWrite"
			if tasktype.IsConst(info.Elem) {
				// The device never writes a const element type back.
				dir = "WriteOnly"
			}
			if info.Cat.IsArray() {
				for i := int64(0); i < info.Len; i++ {
					data.Buffers = append(data.Buffers, bufferArg{
						ArgName:   tasktype.ArrayElem(p.Name, i),
						Var:       tasktype.ArrayRef(p.Name, i),
						Direction: dir,
					})
				}
			} else {
				data.Buffers = append(data.Buffers, bufferArg{
					ArgName:   p.Name,
					Var:       p.Name,
					Direction: dir,
				})
			}
		default:
			data.Scalars = append(data.Scalars, scalarArg{Name: p.Name})
		}
	}
	return glueTmpl.Execute(w, data)
}

// Emit writes the complete host source: the original translation unit with
// the kernel body replaced by the dispatch glue. pre and post are the
// source text before and after the kernel's body braces.
func Emit(w io.Writer, k Kernel, pre, post string) error {
	if _, err := io.WriteString(w, Headers()); err != nil {
		return err
	}
	if _, err := io.WriteString(w, pre); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "{\n"); err != nil {
		return err
	}
	if err := GlueBody(w, k); err != nil {
		return fmt.Errorf("rendering glue for %s: %w", k.Name, err)
	}
	if _, err := io.WriteString(w, "}"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, post); err != nil {
		return err
	}
	return nil
}
