// Package tasktype classifies parameter and argument types of the
// task-parallel dialect and owns the naming schemes shared by the rest of
// the pass.
package tasktype

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Category is the structural role of a parameter or argument.
type Category int

const (
	Scalar Category = iota
	Mmap
	AsyncMmap
	MmapArray
	AsyncMmapArray
	IStream
	OStream
	IStreamArray
	OStreamArray
	SequenceArg
)

func (c Category) String() string {
	switch c {
	case Scalar:
		return "Scalar"
	case Mmap:
		return "Mmap"
	case AsyncMmap:
		return "AsyncMmap"
	case MmapArray:
		return "MmapArray"
	case AsyncMmapArray:
		return "AsyncMmapArray"
	case IStream:
		return "IStream"
	case OStream:
		return "OStream"
	case IStreamArray:
		return "IStreamArray"
	case OStreamArray:
		return "OStreamArray"
	case SequenceArg:
		return "SequenceArg"
	}
	return "Unknown"
}

// IsStream reports whether the category is a stream, singular or array.
func (c Category) IsStream() bool {
	switch c {
	case IStream, OStream, IStreamArray, OStreamArray:
		return true
	}
	return false
}

// IsMmap reports whether the category is an mmap variant, singular or array.
func (c Category) IsMmap() bool {
	switch c {
	case Mmap, AsyncMmap, MmapArray, AsyncMmapArray:
		return true
	}
	return false
}

// IsArray reports whether the category is the plural form of its family.
func (c Category) IsArray() bool {
	switch c {
	case MmapArray, AsyncMmapArray, IStreamArray, OStreamArray:
		return true
	}
	return false
}

// Singular maps an array category to its per-element form. Non-array
// categories map to themselves.
func (c Category) Singular() Category {
	switch c {
	case MmapArray:
		return Mmap
	case AsyncMmapArray:
		return AsyncMmap
	case IStreamArray:
		return IStream
	case OStreamArray:
		return OStream
	}
	return c
}

// MetaCat is the category string used in the exported metadata document.
// Array categories report their singular form; sequence arguments are
// scalars on the wire.
func (c Category) MetaCat() string {
	switch c.Singular() {
	case Mmap:
		return "mmap"
	case AsyncMmap:
		return "async_mmap"
	case IStream:
		return "istream"
	case OStream:
		return "ostream"
	}
	return "scalar"
}

// Info is the classification of one declared type.
type Info struct {
	Cat  Category
	Elem string // element type for streams and mmaps, empty for scalars
	Len  int64  // fixed array length for array categories
	Type string // normalized full type spelling
}

// ChannelInfo describes a channel (stream) declaration.
type ChannelInfo struct {
	Elem  string
	Depth uint64
	Len   int64 // 0 for a singular channel, element count for an array
}

var (
	// ErrUnsupported marks a dialect template whose shape the classifier
	// cannot accept for the requested position.
	ErrUnsupported = errors.New("unsupported type")
	// ErrArraySizeNotConstant marks an array length template argument that
	// does not evaluate to a compile-time integer.
	ErrArraySizeNotConstant = errors.New("array size is not a compile-time constant")
	// ErrNotChannel marks a type that is not a channel declaration.
	ErrNotChannel = errors.New("not a channel declaration")
)

// Classifier matches dialect types by their template name. ConstResolver,
// when set, resolves identifiers used as array-length or depth arguments to
// their compile-time values.
type Classifier struct {
	Namespace     string
	ConstResolver func(name string) (int64, bool)

	pattern *regexp.Regexp
}

// NewClassifier returns a classifier for the given dialect namespace
// (conventionally "tapa").
func NewClassifier(namespace string) *Classifier {
	return &Classifier{
		Namespace: namespace,
		pattern: regexp.MustCompile(
			`(?:\b` + regexp.QuoteMeta(namespace) +
				`\s*::\s*)(async_mmaps|async_mmap|mmaps|mmap|istreams|istream|ostreams|ostream|streams|stream|seq)\b`),
	}
}

// Classify derives the parameter category from a declared type spelling.
// It is total: any type outside the dialect vocabulary is a Scalar.
func (c *Classifier) Classify(typeText string) (Info, error) {
	text := normalize(typeText)
	m := c.pattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Info{Cat: Scalar, Type: text}, nil
	}
	name := text[m[2]:m[3]]
	if name == "seq" {
		return Info{Cat: SequenceArg, Type: text}, nil
	}
	args, err := templateArgs(text[m[3]:])
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
	}

	info := Info{Type: text}
	switch name {
	case "istream", "ostream", "mmap", "async_mmap":
		if len(args) < 1 {
			return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
		}
		info.Elem = stripTag(args[0])
		switch name {
		case "istream":
			info.Cat = IStream
		case "ostream":
			info.Cat = OStream
		case "mmap":
			info.Cat = Mmap
		case "async_mmap":
			info.Cat = AsyncMmap
		}
	case "istreams", "ostreams", "mmaps", "async_mmaps":
		if len(args) < 2 {
			return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
		}
		info.Elem = stripTag(args[0])
		n, ok := c.evalInt(args[1])
		if !ok {
			return Info{}, fmt.Errorf("%w: %q in %s", ErrArraySizeNotConstant, args[1], text)
		}
		info.Len = n
		switch name {
		case "istreams":
			info.Cat = IStreamArray
		case "ostreams":
			info.Cat = OStreamArray
		case "mmaps":
			info.Cat = MmapArray
		case "async_mmaps":
			info.Cat = AsyncMmapArray
		}
	default:
		// stream/streams are declarations, not parameters.
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
	}
	return info, nil
}

// ClassifyChannel derives channel attributes from a stream or streams
// declaration type.
func (c *Classifier) ClassifyChannel(typeText string) (ChannelInfo, error) {
	text := normalize(typeText)
	m := c.pattern.FindStringSubmatchIndex(text)
	if m == nil {
		return ChannelInfo{}, ErrNotChannel
	}
	name := text[m[2]:m[3]]
	if name != "stream" && name != "streams" {
		return ChannelInfo{}, ErrNotChannel
	}
	args, err := templateArgs(text[m[3]:])
	if err != nil {
		return ChannelInfo{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
	}
	info := ChannelInfo{}
	if len(args) > 0 {
		info.Elem = stripTag(args[0])
	}
	switch name {
	case "stream":
		// stream<T, depth>
		if len(args) < 2 {
			return ChannelInfo{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
		}
		d, ok := c.evalInt(args[1])
		if !ok || d < 0 {
			return ChannelInfo{}, fmt.Errorf("%w: %q in %s", ErrArraySizeNotConstant, args[1], text)
		}
		info.Depth = uint64(d)
	case "streams":
		// streams<T, N, depth>
		if len(args) < 3 {
			return ChannelInfo{}, fmt.Errorf("%w: %s", ErrUnsupported, text)
		}
		n, ok := c.evalInt(args[1])
		if !ok {
			return ChannelInfo{}, fmt.Errorf("%w: %q in %s", ErrArraySizeNotConstant, args[1], text)
		}
		d, ok := c.evalInt(args[2])
		if !ok || d < 0 {
			return ChannelInfo{}, fmt.Errorf("%w: %q in %s", ErrArraySizeNotConstant, args[2], text)
		}
		info.Len = n
		info.Depth = uint64(d)
	}
	return info, nil
}

// IsSeq reports whether the expression text names the sequence marker type,
// e.g. "tapa::seq()".
func (c *Classifier) IsSeq(exprText string) bool {
	text := normalize(exprText)
	return strings.HasPrefix(text, c.Namespace+"::seq")
}

func (c *Classifier) evalInt(arg string) (int64, bool) {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.ParseInt(arg, 0, 64); err == nil {
		return n, true
	}
	if c.ConstResolver != nil {
		return c.ConstResolver(arg)
	}
	return 0, false
}

// ArrayRef is the variable-reference naming scheme for one element of an
// array-typed object: base[i]. Used for channel names and source rewriting.
func ArrayRef(base string, i int64) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// ArrayElem is the flattened identifier scheme for one element of an
// array-typed object: base_i. Used where a C identifier is required.
func ArrayElem(base string, i int64) string {
	return fmt.Sprintf("%s_%d", base, i)
}

// FifoVar names the internal FIFO member of a stream variable.
func FifoVar(name string) string {
	return name + "._"
}

// PeekVar names the peek member paired with an input stream.
func PeekVar(name string) string {
	return name + "._peek"
}

// IsConst reports whether the element type is const-qualified.
func IsConst(elem string) bool {
	return constPrefix.MatchString(elem) || strings.Contains(elem, " const")
}

var constPrefix = regexp.MustCompile(`(^|\s)const(\s|$)`)

var apWidth = regexp.MustCompile(`\bap_u?(?:int|fixed)\s*<\s*(\d+)`)

var fixedWidths = map[string]int{
	"bool": 8, "char": 8, "signed char": 8, "unsigned char": 8,
	"int8_t": 8, "uint8_t": 8,
	"short": 16, "unsigned short": 16, "int16_t": 16, "uint16_t": 16,
	"int": 32, "unsigned": 32, "unsigned int": 32,
	"int32_t": 32, "uint32_t": 32, "float": 32,
	"long": 64, "unsigned long": 64, "long long": 64,
	"unsigned long long": 64, "int64_t": 64, "uint64_t": 64,
	"size_t": 64, "double": 64,
}

// WidthOf returns the bit width of an element type from its spelling. The
// second result is false when the spelling is unknown and the 32-bit default
// was used.
func WidthOf(elem string) (int, bool) {
	text := normalize(elem)
	text = strings.TrimSpace(strings.ReplaceAll(text, "const ", ""))
	text = strings.TrimSpace(strings.TrimSuffix(text, " const"))
	if w, ok := fixedWidths[text]; ok {
		return w, true
	}
	if m := apWidth.FindStringSubmatch(text); m != nil {
		w, _ := strconv.Atoi(m[1])
		return w, true
	}
	return 32, false
}

// stripTag removes the elaborated "struct "/"class " tag the front end may
// carry on a record type spelling.
func stripTag(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "struct ")
	s = strings.TrimPrefix(s, "class ")
	return s
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "&* \t\n")
	return strings.Join(strings.Fields(s), " ")
}

// templateArgs splits the bracketed argument list that immediately follows a
// template name, honoring nested angle brackets.
func templateArgs(rest string) ([]string, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "<") {
		return nil, errors.New("missing template argument list")
	}
	depth := 0
	start := 1
	var args []string
	for i, r := range rest {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(rest[start:i]))
				return args, nil
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(rest[start:i]))
				start = i + 1
			}
		}
	}
	return nil, errors.New("unbalanced template argument list")
}
