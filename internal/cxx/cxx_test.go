package cxx

import (
	"strings"
	"testing"
)

const kernelSource = `#include <cstdint>

const int kDepth = 2;
constexpr int kWorkers = 3;

void Producer(tapa::mmap<const float> src, tapa::ostream<float>& out, uint64_t n) {
  for (uint64_t i = 0; i < n; ++i) out.write(src[i]);
}

void Worker(tapa::istream<float>& in, tapa::ostream<float>& out, int id) {
  out.write(in.read() + id);
}

void VecAdd(tapa::mmap<const float> src, tapa::mmap<float> dst, uint64_t n) {
  tapa::stream<float, kDepth> q("q");
  tapa::streams<float, kWorkers, 2> qs("qs");
  tapa::task()
      .invoke<tapa::join>(Producer, src, q, n)
      .invoke<tapa::join, kWorkers>(Worker, "w", q, qs, tapa::seq());
}
`

func parseFixture(t *testing.T) *File {
	t.Helper()
	f, err := ParseBytes("kernel.cpp", []byte(kernelSource))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestFunctionsAndParams(t *testing.T) {
	f := parseFixture(t)
	funcs := f.Functions()
	if len(funcs) != 3 {
		t.Fatalf("got %d functions, want 3", len(funcs))
	}
	names := []string{"Producer", "Worker", "VecAdd"}
	for i, fn := range funcs {
		if fn.Name != names[i] {
			t.Errorf("function %d: %q, want %q", i, fn.Name, names[i])
		}
	}

	producer := funcs[0]
	if len(producer.Params) != 3 {
		t.Fatalf("Producer has %d params, want 3", len(producer.Params))
	}
	if producer.Params[0].Name != "src" {
		t.Errorf("param 0 name %q", producer.Params[0].Name)
	}
	if got := producer.Params[0].TypeText; got != "tapa::mmap<const float>" {
		t.Errorf("param 0 type %q", got)
	}
	// Reference declarators keep their qualifier in the type spelling.
	if got := producer.Params[1].TypeText; !strings.Contains(got, "ostream<float>") {
		t.Errorf("param 1 type %q", got)
	}
	if got := producer.Params[2].TypeText; got != "uint64_t" {
		t.Errorf("param 2 type %q", got)
	}
}

func TestLocalDecls(t *testing.T) {
	f := parseFixture(t)
	var vecAdd *FuncDecl
	for _, fn := range f.Functions() {
		if fn.Name == "VecAdd" {
			vecAdd = fn
		}
	}
	decls := f.LocalDecls(vecAdd.Body())
	if len(decls) != 2 {
		t.Fatalf("got %d local decls, want 2", len(decls))
	}
	if decls[0].Name != "q" || !strings.Contains(decls[0].TypeText, "stream<float, kDepth>") {
		t.Errorf("decl 0: %q %q", decls[0].Name, decls[0].TypeText)
	}
	if decls[1].Name != "qs" {
		t.Errorf("decl 1: %q", decls[1].Name)
	}
}

func TestInvokes(t *testing.T) {
	f := parseFixture(t)
	var vecAdd *FuncDecl
	for _, fn := range f.Functions() {
		if fn.Name == "VecAdd" {
			vecAdd = fn
		}
	}
	invokes := f.Invokes(vecAdd.Body(), "tapa")
	if len(invokes) != 2 {
		t.Fatalf("got %d invokes, want 2", len(invokes))
	}

	// Chained calls are reported in call order, inner first.
	first := invokes[0]
	if len(first.TemplateArgs) != 1 || first.TemplateArgs[0] != "tapa::join" {
		t.Errorf("first template args: %v", first.TemplateArgs)
	}
	if len(first.Args) != 4 {
		t.Fatalf("first invoke has %d args, want 4", len(first.Args))
	}
	if got := f.Text(first.Args[0]); got != "Producer" {
		t.Errorf("first callee %q", got)
	}

	second := invokes[1]
	if len(second.TemplateArgs) != 2 || second.TemplateArgs[1] != "kWorkers" {
		t.Errorf("second template args: %v", second.TemplateArgs)
	}
	if name, ok := f.StringLit(second.Args[1]); !ok || name != "w" {
		t.Errorf("second instance name %q ok=%v", name, ok)
	}
}

func TestHasTaskInvocation(t *testing.T) {
	f := parseFixture(t)
	for _, fn := range f.Functions() {
		upper := f.HasTaskInvocation(fn.Body(), "tapa")
		if fn.Name == "VecAdd" && !upper {
			t.Error("VecAdd must be recognized as upper-level")
		}
		if fn.Name != "VecAdd" && upper {
			t.Errorf("%s must not be recognized as upper-level", fn.Name)
		}
	}
}

func TestConstCollection(t *testing.T) {
	f := parseFixture(t)
	if v, ok := f.ConstValue("kDepth"); !ok || v != 2 {
		t.Errorf("kDepth = (%d, %v)", v, ok)
	}
	if v, ok := f.ConstValue("kWorkers"); !ok || v != 3 {
		t.Errorf("kWorkers = (%d, %v)", v, ok)
	}
	if _, ok := f.ConstValue("missing"); ok {
		t.Error("missing constant must not resolve")
	}
}

func TestEvalInt(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"42", 42},
		{"0x10", 16},
		{"1 << 4", 16},
		{"(2 + 3) * 4", 20},
		{"-7", -7},
		{"10 % 3", 1},
		{"1'000'000", 1000000},
		{"8u", 8},
	}
	for _, tc := range cases {
		src := "const int kValue = " + tc.expr + ";\n"
		f, err := ParseBytes("expr.cpp", []byte(src))
		if err != nil {
			t.Fatalf("ParseBytes: %v", err)
		}
		v, ok := f.ConstValue("kValue")
		if !ok || v != tc.want {
			t.Errorf("eval %q = (%d, %v), want %d", tc.expr, v, ok, tc.want)
		}
		f.Close()
	}
}

func TestLocToLineAndColumn(t *testing.T) {
	f := parseFixture(t)
	fn := f.Functions()[0]
	loc := fn.Loc()
	if loc.File != "kernel.cpp" {
		t.Errorf("loc file %q", loc.File)
	}
	if loc.Line != 6 {
		t.Errorf("Producer at line %d, want 6", loc.Line)
	}
}
