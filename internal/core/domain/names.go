package domain

import (
	"fmt"
	"strings"
)

// Generated globals share this prefix. Scripts must not declare names that start with it.
const GeneratedPrefix = "__scribe_"

const (
	taskEntryPrefix = GeneratedPrefix + "task_"
	taskImplPrefix  = GeneratedPrefix + "impl_"
	variablePrefix  = GeneratedPrefix + "env_"
)

// TaskEntryPoint returns the global the wrapper of a task is generated under.
func TaskEntryPoint(task string) string {
	return taskEntryPrefix + Mangle(task)
}

// TaskImpl returns the global the callable of an expression-form task is hoisted into.
func TaskImpl(task string) string {
	return taskImplPrefix + Mangle(task)
}

// VariableBinding returns the global the resolved value of a variable is generated under.
func VariableBinding(variable string) string {
	return variablePrefix + Mangle(variable)
}

// Mangle turns any name into a valid identifier fragment.
// ASCII letters and digits are kept, '_' is doubled and every other byte becomes _XX.
// Distinct names always mangle to distinct fragments.
func Mangle(name string) string {
	var b strings.Builder
	for i := range len(name) {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}
