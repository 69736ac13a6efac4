package pipeline

import (
	"bytes"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// EmittedModule is the serialized form of a rewritten unit.
// Symbols is nil unless debug symbols were requested.
type EmittedModule struct {
	Assembly []byte
	Symbols  []byte
}

// Emitter compiles the rewritten unit and serializes it.
type Emitter struct{}

// NewEmitter creates a new Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit compiles rewritten under the original filename and writes the program.
// A unit that does not compile fails with ErrRewrittenScriptCompilationFailed carrying
// both the original and the rewritten source.
func (e *Emitter) Emit(analyzed *AnalyzedScript, rewritten *RewrittenScript, debug bool) (*EmittedModule, error) {
	src := analyzed.Source
	fail := func(err error) error {
		diags := compileDiagnostics(src.Filename(), err)
		sortDiagnostics(diags)
		return &domain.DiagnosticError{
			Kind:        domain.ErrRewrittenScriptCompilationFailed,
			Diagnostics: diags,
			Source:      src.Text(),
			Rewritten:   rewritten.Text,
		}
	}

	f, err := syntax.Parse(src.Filename(), rewritten.Text, 0)
	if err != nil {
		return nil, fail(err)
	}
	prog, err := starlark.FileProgram(f, isPredeclared(analyzed.References))
	if err != nil {
		return nil, fail(err)
	}

	var buf bytes.Buffer
	if err := prog.Write(&buf); err != nil {
		return nil, zerr.Wrap(err, domain.ErrEmitFailed.Error())
	}
	out := &EmittedModule{Assembly: buf.Bytes()}

	if debug {
		out.Symbols, err = EncodeSymbols(&domain.SymbolTable{
			Module:    domain.ModuleStem(src.Filename()),
			Source:    src.Text(),
			Rewritten: rewritten.Text,
			Symbols:   rewritten.Symbols,
		})
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrEmitFailed.Error())
		}
	}
	return out, nil
}
