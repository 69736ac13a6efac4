package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/scribe/internal/core/domain"
)

func TestMangle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "build", want: "build"},
		{in: "Build2", want: "Build2"},
		{in: "snake_case", want: "snake__case"},
		{in: "kebab-case", want: "kebab_2Dcase"},
		{in: "a.b", want: "a_2Eb"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Mangle(tt.in))
		})
	}
}

func TestMangle_Injective(t *testing.T) {
	names := []string{"a_2D", "a-", "a__", "a_", "a-2D", "_", "__", "-"}
	seen := make(map[string]string)
	for _, name := range names {
		m := domain.Mangle(name)
		if prev, ok := seen[m]; ok {
			t.Fatalf("%q and %q both mangle to %q", prev, name, m)
		}
		seen[m] = name
	}
}

func TestGeneratedNames(t *testing.T) {
	assert.Equal(t, "__scribe_task_clean", domain.TaskEntryPoint("clean"))
	assert.Equal(t, "__scribe_impl_clean", domain.TaskImpl("clean"))
	assert.Equal(t, "__scribe_env_Version", domain.VariableBinding("Version"))
	assert.NotEqual(t, domain.TaskEntryPoint("x"), domain.VariableBinding("x"))
}
