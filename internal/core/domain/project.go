package domain

// Project is the loaded project configuration.
// All paths are absolute.
type Project struct {
	Root          string
	ConfigPath    string
	Script        string
	Requires      string
	Target        string
	References    []string
	Namespaces    []string
	Substitutions map[string]string
	Debug         bool
}
