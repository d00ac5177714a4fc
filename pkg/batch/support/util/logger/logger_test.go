package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("INFO")

	cases := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"silent", LevelSilent},
		{"bogus", LevelInfo},
	}
	for _, c := range cases {
		SetLogLevel(c.in)
		assert.Equal(t, c.want, CurrentLevel(), c.in)
	}
}

func TestShortFuncName(t *testing.T) {
	assert.Equal(t, "app.registerHooks", hookName("github.com/x/y/pkg/batch/app.registerHooks.func1"))
	assert.Equal(t, "main", hookName("main"))
}
