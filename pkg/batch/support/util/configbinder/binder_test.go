package configbinder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pool struct {
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

type conn struct {
	Type    string        `mapstructure:"type"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
	Pool    pool          `mapstructure:"pool"`
}

func TestBindAny_WeakTypes(t *testing.T) {
	var c conn
	err := BindAny(map[string]interface{}{
		"type":    "postgres",
		"port":    "5432",
		"timeout": "5s",
		"pool":    map[interface{}]interface{}{"max_open_conns": 10},
	}, &c)
	require.NoError(t, err)
	assert.Equal(t, conn{Type: "postgres", Port: 5432, Timeout: 5 * time.Second, Pool: pool{MaxOpenConns: 10}}, c)

	assert.NoError(t, BindAny(nil, &c))
	assert.ErrorContains(t, BindAny("sqlite", &c), "expected a mapping")
}

type score struct {
	HomeScore int
	Status    string
	StartTime time.Time
}

func TestBind_SnakeCaseStrict(t *testing.T) {
	var s score
	err := Bind(map[string]interface{}{
		"home_score": "101",
		"status":     "final",
		"start_time": "2026-01-02T03:04:05Z",
	}, &s, Strict(), SnakeCase(), Times(time.RFC3339))
	require.NoError(t, err)
	assert.Equal(t, 101, s.HomeScore)
	assert.Equal(t, "final", s.Status)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), s.StartTime)

	err = Bind(map[string]interface{}{"away_score": 99}, &s, Strict(), SnakeCase())
	assert.ErrorContains(t, err, "score")
}
