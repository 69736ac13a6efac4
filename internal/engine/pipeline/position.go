package pipeline

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/core/domain"
)

// lineIndex maps syntax positions, whose columns count runes, to byte offsets of a source text.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	for i := range len(src) {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (x *lineIndex) offset(pos syntax.Position) int {
	line := int(pos.Line)
	if line < 1 {
		return 0
	}
	if line > len(x.starts) {
		return len(x.src)
	}
	off := x.starts[line-1]
	for col := int(pos.Col); col > 1 && off < len(x.src) && x.src[off] != '\n'; col-- {
		_, size := utf8.DecodeRuneInString(x.src[off:])
		off += size
	}
	return off
}

// span returns the byte range covered by n.
func (x *lineIndex) span(n syntax.Node) (int, int) {
	start, end := n.Span()
	return x.offset(start), x.offset(end)
}

// text returns the source text of n exactly as written.
func (x *lineIndex) text(n syntax.Node) string {
	start, end := x.span(n)
	return x.src[start:end]
}

func toPosition(p syntax.Position) domain.Position {
	return domain.Position{File: p.Filename(), Line: int(p.Line), Col: int(p.Col)}
}

func errorDiagnostic(pos domain.Position, msg string) domain.Diagnostic {
	return domain.Diagnostic{Severity: domain.SeverityError, Pos: pos, Message: msg}
}

// compileDiagnostics converts the errors of syntax.Parse and starlark.FileProgram.
func compileDiagnostics(filename string, err error) []domain.Diagnostic {
	var list resolve.ErrorList
	if errors.As(err, &list) {
		diags := make([]domain.Diagnostic, 0, len(list))
		for _, e := range list {
			diags = append(diags, errorDiagnostic(toPosition(e.Pos), e.Msg))
		}
		return diags
	}
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return []domain.Diagnostic{errorDiagnostic(toPosition(syntaxErr.Pos), syntaxErr.Msg)}
	}
	return []domain.Diagnostic{errorDiagnostic(domain.Position{File: filename}, err.Error())}
}

func sortDiagnostics(diags []domain.Diagnostic) {
	slices.SortStableFunc(diags, func(a, b domain.Diagnostic) int {
		if c := strings.Compare(a.Pos.File, b.Pos.File); c != 0 {
			return c
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line - b.Pos.Line
		}
		return a.Pos.Col - b.Pos.Col
	})
}
