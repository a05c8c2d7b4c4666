package fshcompiler

import (
	"strings"
)

// Severity of a compile issue.
type Severity string

const (
	// SeverityFatal indicates the artifact could not be compiled at all.
	SeverityFatal Severity = "fatal"
	// SeverityError indicates a rule violated a constraint contract.
	SeverityError Severity = "error"
	// SeverityWarning indicates a suspicious construct that was compiled anyway.
	SeverityWarning Severity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation Severity = "information"
)

// Issue is one structured diagnostic raised during compilation. It carries
// enough context (path, offending values via the wrapped error message, and
// source location) to render a precise user-facing message; the core never
// writes to any stream itself.
type Issue struct {
	// Severity of the issue.
	Severity Severity `json:"severity"`

	// Kind tags the underlying error, e.g. "WideningCardinalityError".
	Kind string `json:"kind,omitempty"`

	// Message is the human-readable diagnostic.
	Message string `json:"message"`

	// Path is the element path the issue applies to.
	Path string `json:"path,omitempty"`

	// File, Line, and Column locate the offending rule in its source.
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsError reports whether the issue is an error or fatal.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning reports whether the issue is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String renders the issue for human consumption.
func (i Issue) String() string {
	var sb strings.Builder
	sb.WriteString(string(i.Severity))
	sb.WriteString(": ")
	sb.WriteString(i.Message)
	if i.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(i.Path)
	}
	if i.File != "" {
		sb.WriteString(" (")
		sb.WriteString(i.File)
		if i.Line > 0 {
			sb.WriteString(":")
			sb.WriteString(itoa(i.Line))
			if i.Column > 0 {
				sb.WriteString(":")
				sb.WriteString(itoa(i.Column))
			}
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a builder with the given severity.
func NewIssue(severity Severity) *IssueBuilder {
	return &IssueBuilder{issue: Issue{Severity: severity}}
}

// ErrorIssue creates an error-severity builder.
func ErrorIssue() *IssueBuilder { return NewIssue(SeverityError) }

// WarningIssue creates a warning-severity builder.
func WarningIssue() *IssueBuilder { return NewIssue(SeverityWarning) }

// Kind sets the error kind tag.
func (b *IssueBuilder) Kind(kind string) *IssueBuilder {
	b.issue.Kind = kind
	return b
}

// Message sets the diagnostic message.
func (b *IssueBuilder) Message(msg string) *IssueBuilder {
	b.issue.Message = msg
	return b
}

// At sets the element path.
func (b *IssueBuilder) At(path string) *IssueBuilder {
	b.issue.Path = path
	return b
}

// Position sets the source location.
func (b *IssueBuilder) Position(file string, line, column int) *IssueBuilder {
	b.issue.File = file
	b.issue.Line = line
	b.issue.Column = column
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
