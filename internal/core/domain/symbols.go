package domain

// SymbolKind is the kind of a generated binding.
type SymbolKind string

const (
	// SymbolTask is the wrapper generated for a task.
	SymbolTask SymbolKind = "task"
	// SymbolVariable is the binding generated for a variable.
	SymbolVariable SymbolKind = "env"
)

// Symbol maps one generated binding back to the declaration it came from.
type Symbol struct {
	Name     string     `msgpack:"name"`
	Kind     SymbolKind `msgpack:"kind"`
	Binding  string     `msgpack:"binding"`
	Declared Position   `msgpack:"declared"`
	// Line is the line of the binding inside the rewritten source.
	Line int `msgpack:"line"`
}

// SymbolTable is the debug information emitted next to a module.
type SymbolTable struct {
	Module    string   `msgpack:"module"`
	Source    string   `msgpack:"source"`
	Rewritten string   `msgpack:"rewritten"`
	Symbols   []Symbol `msgpack:"symbols"`
}

// ByLine returns the symbol generated at a line of the rewritten source.
func (t *SymbolTable) ByLine(line int) (Symbol, bool) {
	for _, s := range t.Symbols {
		if s.Line == line {
			return s, true
		}
	}
	return Symbol{}, false
}
