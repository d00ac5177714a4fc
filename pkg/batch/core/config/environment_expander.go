package config

import (
	"os"
	"strings"
)

// EnvironmentExpander expands ${VAR} placeholders in raw configuration bytes.
type EnvironmentExpander interface {
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander resolves placeholders from the process environment.
// ${VAR:-fallback} yields fallback when VAR is unset or empty; a bare unset
// ${VAR} expands to the empty string.
type OsEnvironmentExpander struct {
	lookup func(string) (string, bool)
}

// NewOsEnvironmentExpander returns an expander backed by os.LookupEnv.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{lookup: os.LookupEnv}
}

// Expand implements EnvironmentExpander.
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	return []byte(os.Expand(string(input), e.resolve)), nil
}

func (e *OsEnvironmentExpander) resolve(key string) string {
	name, fallback, hasFallback := strings.Cut(key, ":-")
	v, _ := e.lookup(name)
	if v == "" && hasFallback {
		return fallback
	}
	return v
}
