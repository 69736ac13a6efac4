package domain

import "time"

// Artifact is an emitted module persisted by the artifact store.
type Artifact struct {
	Key        string              `json:"key"`
	Script     string              `json:"script"`
	Tasks      []string            `json:"tasks"`
	Variables  map[string]string   `json:"variables"`
	References []AssemblyReference `json:"references"`
	CreatedAt  time.Time           `json:"created_at"`

	Module  []byte `json:"-"`
	Symbols []byte `json:"-"`
}
