package diag

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic. Errors make the pass fail; warnings and remarks
// never do.
type Severity int

const (
	Error Severity = iota
	Warning
	Remark
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Remark:
		return "remark"
	}
	return "unknown"
}

// Code identifies the class of a diagnostic independent of its message text.
type Code string

const (
	UnsupportedType              Code = "UnsupportedType"
	ArraySizeNotConstant         Code = "ArraySizeNotConstant"
	UnexpectedInvocationShape    Code = "UnexpectedInvocationShape"
	UnexpectedInvocationArgument Code = "UnexpectedInvocationArgument"
	VectorIndexWraparound        Code = "VectorIndexWraparound"
	ChannelConsumedTwice         Code = "ChannelConsumedTwice"
	ChannelProducedTwice         Code = "ChannelProducedTwice"
	ConsumedNotProduced          Code = "ConsumedNotProduced"
	ProducedNotConsumed          Code = "ProducedNotConsumed"
	UnusedChannel                Code = "UnusedChannel"
	EvalNotConstant              Code = "EvalNotConstant"
)

// Loc is a source position. Line and Col are 1-based; a zero Loc is allowed
// for diagnostics with no source anchor.
type Loc struct {
	File string
	Line int
	Col  int
}

func (l Loc) String() string {
	if l.File == "" && l.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Diagnostic is one reported finding with its location and severity.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Loc      Loc
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Loc, d.Severity, d.Message, d.Code)
}

// Bag accumulates diagnostics so that a whole task can be checked in one
// pass before deciding success or failure.
type Bag struct {
	items []Diagnostic
}

func (b *Bag) add(sev Severity, code Code, loc Loc, format string, args ...interface{}) {
	b.items = append(b.items, Diagnostic{
		Code:     code,
		Severity: sev,
		Loc:      loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errorf records an error diagnostic.
func (b *Bag) Errorf(code Code, loc Loc, format string, args ...interface{}) {
	b.add(Error, code, loc, format, args...)
}

// Warnf records a warning diagnostic.
func (b *Bag) Warnf(code Code, loc Loc, format string, args ...interface{}) {
	b.add(Warning, code, loc, format, args...)
}

// Remarkf records an informational diagnostic.
func (b *Bag) Remarkf(code Code, loc Loc, format string, args ...interface{}) {
	b.add(Remark, code, loc, format, args...)
}

// All returns the accumulated diagnostics in report order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// HasErrors reports whether any accumulated diagnostic is an error.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// CountBy returns the number of diagnostics with the given code.
func (b *Bag) CountBy(code Code) int {
	n := 0
	for _, d := range b.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Summary formats all diagnostics, one per line.
func (b *Bag) Summary() string {
	var sb strings.Builder
	for _, d := range b.items {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
