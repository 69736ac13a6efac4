package domain

// EnvironmentVariable is a configuration value declared by a script with env().
// Value is the default unless a substitution overrode it.
type EnvironmentVariable struct {
	Name       string   `json:"name"`
	Value      string   `json:"value"`
	Default    string   `json:"default"`
	Help       string   `json:"help,omitempty"`
	Overridden bool     `json:"overridden"`
	Binding    string   `json:"-"`
	Pos        Position `json:"-"`
}
