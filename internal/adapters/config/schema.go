package config

// Scribefile represents the structure of the scribe.yaml configuration file.
type Scribefile struct {
	Requires      string            `yaml:"requires"`
	Root          string            `yaml:"root"`
	Script        string            `yaml:"script"`
	Target        string            `yaml:"target"`
	References    []string          `yaml:"references"`
	Namespaces    []string          `yaml:"namespaces"`
	Substitutions map[string]string `yaml:"substitutions"`
	Debug         bool              `yaml:"debug"`
}
