package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.trai.ch/scribe/internal/core/domain"
)

const generatedHeader = "# generated by scribe: do not declare names starting with " + domain.GeneratedPrefix

// RewrittenScript is the generated unit derived from an analyzed script.
type RewrittenScript struct {
	Text string
	// Captured lists every variable baked into the unit, in declaration order.
	Captured []domain.EnvironmentVariable
	// Impls maps a task name to the global its callable is reachable under.
	Impls map[string]string
	// Symbols maps every generated binding back to its declaration.
	Symbols []domain.Symbol
}

// Rewriter synthesizes the unit that exposes tasks and variables under generated names.
type Rewriter struct{}

// NewRewriter creates a new Rewriter.
func NewRewriter() *Rewriter {
	return &Rewriter{}
}

type splice struct {
	start, end int
	text       string
}

// Rewrite replaces every marker call in place and appends the generated bindings.
// Replacements keep the line count of the text they replace, so every original
// statement stays on its original line.
func (r *Rewriter) Rewrite(analyzed *AnalyzedScript) *RewrittenScript {
	idx := analyzed.index
	out := &RewrittenScript{Impls: make(map[string]string, len(analyzed.Tasks))}

	splices := make([]splice, 0, len(analyzed.taskDecls)+len(analyzed.varDecls))
	for _, d := range analyzed.taskDecls {
		start, end := idx.span(d.call)
		callable := idx.text(d.callable)

		var text, impl string
		if d.assigned != nil {
			impl = d.assigned.Name
			text = "(" + callable + padding(idx.src[start:end], callable) + ")"
		} else {
			impl = domain.TaskImpl(d.task.Name)
			body := impl + " = (" + callable
			text = body + padding(idx.src[start:end], body) + ")"
		}
		out.Impls[d.task.Name] = impl
		splices = append(splices, splice{start: start, end: end, text: text})
	}
	for _, d := range analyzed.varDecls {
		start, end := idx.span(d.call)
		literal := "(" + quote(analyzed.Variables[d.index].Value)
		splices = append(splices, splice{start: start, end: end, text: literal + padding(idx.src[start:end], literal) + ")"})
	}
	slices.SortFunc(splices, func(a, b splice) int { return a.start - b.start })

	var b strings.Builder
	pos := 0
	for _, s := range splices {
		b.WriteString(idx.src[pos:s.start])
		b.WriteString(s.text)
		pos = s.end
	}
	b.WriteString(idx.src[pos:])

	if len(analyzed.Tasks) == 0 && len(analyzed.Variables) == 0 {
		out.Text = b.String()
		return out
	}

	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("\n" + generatedHeader + "\n")
	line := strings.Count(b.String(), "\n") + 1

	for _, t := range analyzed.Tasks {
		fmt.Fprintf(&b, "def %s(*args, **kwargs): return %s(*args, **kwargs)\n", t.EntryPoint, out.Impls[t.Name])
		out.Symbols = append(out.Symbols, domain.Symbol{
			Name:     t.Name,
			Kind:     domain.SymbolTask,
			Binding:  t.EntryPoint,
			Declared: t.Pos,
			Line:     line,
		})
		line++
	}
	for _, v := range analyzed.Variables {
		fmt.Fprintf(&b, "%s = %s\n", v.Binding, quote(v.Value))
		out.Symbols = append(out.Symbols, domain.Symbol{
			Name:     v.Name,
			Kind:     domain.SymbolVariable,
			Binding:  v.Binding,
			Declared: v.Pos,
			Line:     line,
		})
		out.Captured = append(out.Captured, v)
		line++
	}

	out.Text = b.String()
	return out
}

// padding returns the newlines needed for replacement to span as many lines as original.
func padding(original, replacement string) string {
	n := strings.Count(original, "\n") - strings.Count(replacement, "\n")
	if n <= 0 {
		return ""
	}
	return strings.Repeat("\n", n)
}

func quote(s string) string {
	return starlark.String(s).String()
}
