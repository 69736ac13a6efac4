package domain

import (
	"fmt"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity uint8

const (
	// SeverityError marks a diagnostic that fails the build.
	SeverityError Severity = iota
	// SeverityWarning marks a diagnostic that is reported but does not fail the build.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single message produced while compiling or analyzing a script.
type Diagnostic struct {
	Severity Severity
	Pos      Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Position is a 1-based line and column inside a named file.
// Columns count runes, not bytes.
type Position struct {
	File string `json:"file,omitempty" msgpack:"file"`
	Line int    `json:"line"           msgpack:"line"`
	Col  int    `json:"col"            msgpack:"col"`
}

func (p Position) String() string {
	file := p.File
	if file == "" {
		file = "<script>"
	}
	if p.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, p.Line, p.Col)
}

// DiagnosticError is the failure of a compilation stage.
// Kind is one of the stage sentinels (ErrScriptCompilationFailed, ErrDuplicateDeclaration,
// ErrInvalidDeclaration, ErrRewrittenScriptCompilationFailed) and is matched by errors.Is.
// Rewritten is only set when the generated module failed to compile.
type DiagnosticError struct {
	Kind        error
	Diagnostics []Diagnostic
	Source      string
	Rewritten   string
}

// NewDiagnosticError creates a DiagnosticError for the original script source.
func NewDiagnosticError(kind error, source string, diags ...Diagnostic) *DiagnosticError {
	return &DiagnosticError{Kind: kind, Diagnostics: diags, Source: source}
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Diagnostics) > 0 {
		b.WriteString(": ")
		d := e.Diagnostics[0]
		fmt.Fprintf(&b, "%s: %s", d.Pos, d.Message)
		if n := len(e.Diagnostics) - 1; n > 0 {
			fmt.Fprintf(&b, " (and %d more)", n)
		}
	}
	return b.String()
}

// Is reports whether target is the stage sentinel of this error.
func (e *DiagnosticError) Is(target error) bool {
	return target == e.Kind
}

// Report renders every diagnostic with the offending source line.
// When the generated module failed, both the original and the rewritten source are appended in full.
func (e *DiagnosticError) Report() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteByte('\n')

	context := e.Source
	if e.Rewritten != "" {
		context = e.Rewritten
	}
	lines := strings.Split(context, "\n")

	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "  %s\n", d)
		if d.Pos.Line < 1 || d.Pos.Line > len(lines) {
			continue
		}
		line := lines[d.Pos.Line-1]
		fmt.Fprintf(&b, "    | %s\n", line)
		if d.Pos.Col > 0 {
			fmt.Fprintf(&b, "    | %s^\n", strings.Repeat(" ", d.Pos.Col-1))
		}
	}

	if e.Rewritten != "" {
		b.WriteString("\noriginal source:\n")
		writeNumbered(&b, e.Source)
		b.WriteString("\nrewritten source:\n")
		writeNumbered(&b, e.Rewritten)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeNumbered(b *strings.Builder, text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		fmt.Fprintf(b, "%*d | %s\n", width, i+1, line)
	}
}
