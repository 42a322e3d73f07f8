package tasktype

import (
	"errors"
	"testing"
)

func TestClassifyCategories(t *testing.T) {
	cls := NewClassifier("tapa")

	cases := []struct {
		typeText string
		cat      Category
		elem     string
		length   int64
	}{
		{"tapa::mmap<float>", Mmap, "float", 0},
		{"tapa::mmap<const float>", Mmap, "const float", 0},
		{"tapa::async_mmap<uint64_t>", AsyncMmap, "uint64_t", 0},
		{"tapa::mmaps<int, 4>", MmapArray, "int", 4},
		{"tapa::async_mmaps<ap_uint<512>, 4>", AsyncMmapArray, "ap_uint<512>", 4},
		{"tapa::istream<int>&", IStream, "int", 0},
		{"tapa::ostream<float>&", OStream, "float", 0},
		{"tapa::istreams<int, 8>&", IStreamArray, "int", 8},
		{"tapa::ostreams<int, 2>&", OStreamArray, "int", 2},
		{"tapa::seq", SequenceArg, "", 0},
		{"uint64_t", Scalar, "", 0},
		{"const std::string&", Scalar, "", 0},
	}
	for _, tc := range cases {
		info, err := cls.Classify(tc.typeText)
		if err != nil {
			t.Errorf("Classify(%q): unexpected error: %v", tc.typeText, err)
			continue
		}
		if info.Cat != tc.cat {
			t.Errorf("Classify(%q): got %v, want %v", tc.typeText, info.Cat, tc.cat)
		}
		if info.Elem != tc.elem {
			t.Errorf("Classify(%q): elem %q, want %q", tc.typeText, info.Elem, tc.elem)
		}
		if info.Len != tc.length {
			t.Errorf("Classify(%q): len %d, want %d", tc.typeText, info.Len, tc.length)
		}
	}
}

func TestClassifyArraySizeNotConstant(t *testing.T) {
	cls := NewClassifier("tapa")
	_, err := cls.Classify("tapa::mmaps<int, kUnknown>")
	if !errors.Is(err, ErrArraySizeNotConstant) {
		t.Fatalf("got %v, want ErrArraySizeNotConstant", err)
	}
}

func TestClassifyConstResolver(t *testing.T) {
	cls := NewClassifier("tapa")
	cls.ConstResolver = func(name string) (int64, bool) {
		if name == "kBanks" {
			return 4, true
		}
		return 0, false
	}
	info, err := cls.Classify("tapa::mmaps<int, kBanks>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Len != 4 {
		t.Errorf("len %d, want 4", info.Len)
	}
}

func TestClassifyChannel(t *testing.T) {
	cls := NewClassifier("tapa")

	ch, err := cls.ClassifyChannel("tapa::stream<float, 2>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Elem != "float" || ch.Depth != 2 || ch.Len != 0 {
		t.Errorf("stream: got %+v", ch)
	}

	ch, err = cls.ClassifyChannel("tapa::streams<int, 4, 8>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Elem != "int" || ch.Depth != 8 || ch.Len != 4 {
		t.Errorf("streams: got %+v", ch)
	}

	if _, err := cls.ClassifyChannel("int"); !errors.Is(err, ErrNotChannel) {
		t.Errorf("got %v, want ErrNotChannel", err)
	}
	if _, err := cls.ClassifyChannel("std::vector<int>"); !errors.Is(err, ErrNotChannel) {
		t.Errorf("got %v, want ErrNotChannel", err)
	}
}

func TestSingularAndMetaCat(t *testing.T) {
	if MmapArray.Singular() != Mmap {
		t.Error("MmapArray.Singular() != Mmap")
	}
	if IStreamArray.MetaCat() != "istream" {
		t.Errorf("IStreamArray.MetaCat() = %q", IStreamArray.MetaCat())
	}
	if AsyncMmapArray.MetaCat() != "async_mmap" {
		t.Errorf("AsyncMmapArray.MetaCat() = %q", AsyncMmapArray.MetaCat())
	}
	if SequenceArg.MetaCat() != "scalar" {
		t.Errorf("SequenceArg.MetaCat() = %q", SequenceArg.MetaCat())
	}
}

func TestNamingSchemes(t *testing.T) {
	if got := ArrayRef("q", 3); got != "q[3]" {
		t.Errorf("ArrayRef = %q", got)
	}
	if got := ArrayElem("q", 3); got != "q_3" {
		t.Errorf("ArrayElem = %q", got)
	}
	if got := FifoVar("q"); got != "q._" {
		t.Errorf("FifoVar = %q", got)
	}
	if got := PeekVar("q"); got != "q._peek" {
		t.Errorf("PeekVar = %q", got)
	}
}

func TestWidthOf(t *testing.T) {
	cases := []struct {
		elem  string
		width int
		known bool
	}{
		{"float", 32, true},
		{"double", 64, true},
		{"uint8_t", 8, true},
		{"const float", 32, true},
		{"ap_uint<512>", 512, true},
		{"ap_int<33>", 33, true},
		{"MyStruct", 32, false},
	}
	for _, tc := range cases {
		w, known := WidthOf(tc.elem)
		if w != tc.width || known != tc.known {
			t.Errorf("WidthOf(%q) = (%d, %v), want (%d, %v)",
				tc.elem, w, known, tc.width, tc.known)
		}
	}
}

func TestIsConst(t *testing.T) {
	if !IsConst("const float") {
		t.Error("const float should be const")
	}
	if !IsConst("float const") {
		t.Error("float const should be const")
	}
	if IsConst("constant_t") {
		t.Error("constant_t is not const-qualified")
	}
}

func TestIsSeq(t *testing.T) {
	cls := NewClassifier("tapa")
	if !cls.IsSeq("tapa::seq()") {
		t.Error("tapa::seq() should be the sequence marker")
	}
	if cls.IsSeq("tapa::task()") {
		t.Error("tapa::task() is not the sequence marker")
	}
}
