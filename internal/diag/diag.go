// Package diag defines the diagnostic values the semantic engine reports.
// Diagnostics are data, not errors: population and analysis collect them
// per file and keep going.
package diag

import "fmt"

type Kind string

const (
	KindParseError             Kind = "PARSE_ERROR"
	KindDuplicateDefinition    Kind = "DUPLICATE_DEFINITION"
	KindUndefinedSymbol        Kind = "UNDEFINED_SYMBOL"
	KindAmbiguousSimpleName    Kind = "AMBIGUOUS_SIMPLE_NAME"
	KindCircularSpecialization Kind = "CIRCULAR_SPECIALIZATION"
	KindCircularSubsetting     Kind = "CIRCULAR_SUBSETTING"
	KindCircularRedefinition   Kind = "CIRCULAR_REDEFINITION"
	KindUnresolvedImport       Kind = "UNRESOLVED_IMPORT"
	KindAliasCycle             Kind = "ALIAS_CYCLE"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Position is a 0-indexed line/column pair.
type Position struct {
	Line   int
	Column int
}

// Span is a half-open range in a source file.
type Span struct {
	Start Position
	End   Position
}

func SpanAt(line, column, length int) Span {
	return Span{
		Start: Position{Line: line, Column: column},
		End:   Position{Line: line, Column: column + length},
	}
}

type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	File     string
	Span     Span
	// Symbol is the qualified name the diagnostic is attached to, when any.
	Symbol string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: [%s] %s",
		d.File, d.Span.Start.Line+1, d.Span.Start.Column+1, d.Severity, d.Kind, d.Message)
}

func Error(kind Kind, file string, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Span:     span,
	}
}

// CountBySeverity tallies errors and warnings in a diagnostic list.
func CountBySeverity(diags []Diagnostic) (errors, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
