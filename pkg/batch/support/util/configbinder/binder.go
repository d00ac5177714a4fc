// Package configbinder decodes loosely typed maps (YAML sections, CLI key=value pairs)
// onto structs with mapstructure.
package configbinder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Option adjusts the decoder built by Bind.
type Option func(*mapstructure.DecoderConfig)

// Strict rejects keys that match no field.
func Strict() Option {
	return func(c *mapstructure.DecoderConfig) { c.ErrorUnused = true }
}

// SnakeCase matches snake_case keys against exported Go field names, so
// "home_score" binds to HomeScore.
func SnakeCase() Option {
	return func(c *mapstructure.DecoderConfig) {
		c.MatchName = func(key, field string) bool {
			return strings.EqualFold(strings.ReplaceAll(key, "_", ""), field)
		}
	}
}

// Times parses string values into time.Time using layout.
func Times(layout string) Option {
	return func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(layout),
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}
}

// Bind decodes props onto target. Strings convert to numbers and bools.
// Fields are matched by their mapstructure tag, then case-insensitively by name.
func Bind(props map[string]interface{}, target interface{}, opts ...Option) error {
	if len(props) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(props); err != nil {
		return fmt.Errorf("failed to bind %s: %w", targetName(target), err)
	}
	return nil
}

// BindAny is Bind for a value read from an untyped config tree.
func BindAny(raw interface{}, target interface{}, opts ...Option) error {
	switch m := raw.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return Bind(m, target, opts...)
	case map[interface{}]interface{}:
		props := make(map[string]interface{}, len(m))
		for k, v := range m {
			props[fmt.Sprint(k)] = v
		}
		return Bind(props, target, opts...)
	default:
		return fmt.Errorf("failed to bind %s: expected a mapping, got %T", targetName(target), raw)
	}
}

func targetName(target interface{}) string {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}
