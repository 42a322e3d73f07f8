package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hls-tools/taskcc/internal/config"
	"github.com/hls-tools/taskcc/internal/transform"
)

const vecAddKernel = `#include <cstdint>

void Add(tapa::istream<float>& a, tapa::istream<float>& b,
         tapa::ostream<float>& c, uint64_t n) {
  for (uint64_t i = 0; i < n; ++i) c.write(a.read() + b.read());
}

void Mmap2Stream(tapa::mmap<const float> mem, tapa::ostream<float>& out,
                 uint64_t n) {
  for (uint64_t i = 0; i < n; ++i) out.write(mem[i]);
}

void Stream2Mmap(tapa::istream<float>& in, tapa::mmap<float> mem, uint64_t n) {
  for (uint64_t i = 0; i < n; ++i) mem[i] = in.read();
}

void VecAdd(tapa::mmap<const float> a, tapa::mmap<const float> b,
            tapa::mmap<float> c, uint64_t n) {
  tapa::stream<float, 2> a_q("a");
  tapa::stream<float, 2> b_q("b");
  tapa::stream<float, 2> c_q("c");

  tapa::task()
      .invoke(Mmap2Stream, a, a_q, n)
      .invoke(Mmap2Stream, b, b_q, n)
      .invoke(Add, a_q, b_q, c_q, n)
      .invoke(Stream2Mmap, c_q, c, n);
}
`

func TestTransformEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	outDir := filepath.Join(workDir, "out")
	srcPath := filepath.Join(workDir, "vecadd.cpp")
	if err := os.WriteFile(srcPath, []byte(vecAddKernel), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Top = "VecAdd"
	cfg.OutputDir = outDir

	tr := transform.New(cfg)
	if err := tr.Run(srcPath); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rewritten, err := os.ReadFile(filepath.Join(outDir, "vecadd.cpp"))
	if err != nil {
		t.Fatalf("rewritten source missing: %v", err)
	}
	out := string(rewritten)
	if !strings.Contains(out, `extern "C"`) {
		t.Error("rewritten source must wrap the top task in extern \"C\"")
	}
	if !strings.Contains(out, "#pragma HLS interface s_axilite port = return bundle = control") {
		t.Error("rewritten source must carry the return-port directive")
	}

	metaBytes, err := os.ReadFile(filepath.Join(outDir, "VecAdd.json"))
	if err != nil {
		t.Fatalf("metadata document missing: %v", err)
	}
	var doc struct {
		Ports []struct {
			Name  string `json:"name"`
			Cat   string `json:"cat"`
			Width int    `json:"width"`
		} `json:"ports"`
		Fifos map[string]struct {
			Depth      *uint64         `json:"depth"`
			ProducedBy []json.RawMessage `json:"produced_by"`
			ConsumedBy []json.RawMessage `json:"consumed_by"`
		} `json:"fifos"`
		Tasks map[string][]struct {
			Step int `json:"step"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(metaBytes, &doc); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if len(doc.Ports) != 4 {
		t.Errorf("got %d ports, want 4", len(doc.Ports))
	}
	if len(doc.Fifos) != 3 {
		t.Errorf("got %d fifos, want 3", len(doc.Fifos))
	}
	if len(doc.Tasks["Mmap2Stream"]) != 2 {
		t.Errorf("Mmap2Stream instances: %d, want 2", len(doc.Tasks["Mmap2Stream"]))
	}
	for name, f := range doc.Fifos {
		if f.Depth == nil || len(f.ProducedBy) != 2 || len(f.ConsumedBy) != 2 {
			t.Errorf("fifo %s incomplete: %+v", name, f)
		}
	}
}

func TestTransformFailureWritesNothing(t *testing.T) {
	workDir := t.TempDir()
	outDir := filepath.Join(workDir, "out")
	srcPath := filepath.Join(workDir, "bad.cpp")
	bad := `void Source(tapa::ostream<int>& out) { out.write(1); }
void App(tapa::mmap<int> mem) {
  tapa::stream<int, 2> q("q");
  tapa::task().invoke(Source, q);
}
`
	if err := os.WriteFile(srcPath, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Top = "App"
	cfg.OutputDir = outDir

	if err := transform.New(cfg).Run(srcPath); err == nil {
		t.Fatal("a dangling channel must fail the run")
	}
	if _, err := os.Stat(filepath.Join(outDir, "bad.cpp")); !os.IsNotExist(err) {
		t.Error("no rewritten source may be written on failure")
	}
	if _, err := os.Stat(filepath.Join(outDir, "App.json")); !os.IsNotExist(err) {
		t.Error("no metadata may be written on failure")
	}
}

func TestHostGlueGeneration(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Top = "VecAdd"

	glue, err := transform.New(cfg).HostGlue("vecadd.cpp", []byte(vecAddKernel))
	if err != nil {
		t.Fatalf("HostGlue: %v", err)
	}
	out := string(glue)

	if !strings.Contains(out, "#include <frt.h>") {
		t.Error("host glue must include the runtime header")
	}
	if !strings.Contains(out, `"TASKCC_BITSTREAM_VecAdd"`) {
		t.Error("host glue must probe the kernel-specific bitstream variable")
	}
	// Const-element buffers are write-only from the host.
	if !strings.Contains(out, "fpga::WriteOnly(a.get(), a.size())") {
		t.Error("const mmap must bind as WriteOnly")
	}
	if !strings.Contains(out, "fpga::ReadWrite(c.get(), c.size())") {
		t.Error("mutable mmap must bind as ReadWrite")
	}
	// Leaf task bodies are untouched on the host path.
	if !strings.Contains(out, "c.write(a.read() + b.read());") {
		t.Error("non-top functions must be preserved")
	}
}
