package model

import "time"

// changes accumulates the names of business fields that a merge actually modified.
type changes []string

func (c *changes) str(name string, dst *string, src string) {
	if *dst != src {
		*dst = src
		*c = append(*c, name)
	}
}

func (c *changes) int(name string, dst *int, src int) {
	if *dst != src {
		*dst = src
		*c = append(*c, name)
	}
}

func (c *changes) float(name string, dst *float64, src float64) {
	if *dst != src {
		*dst = src
		*c = append(*c, name)
	}
}

func (c *changes) uint(name string, dst *uint, src uint) {
	if *dst != src {
		*dst = src
		*c = append(*c, name)
	}
}

func (c *changes) intPtr(name string, dst **int, src *int) {
	if eqPtr(*dst, src) {
		return
	}
	*dst = copyPtr(src)
	*c = append(*c, name)
}

func (c *changes) floatPtr(name string, dst **float64, src *float64) {
	if eqPtr(*dst, src) {
		return
	}
	*dst = copyPtr(src)
	*c = append(*c, name)
}

func (c *changes) uintPtr(name string, dst **uint, src *uint) {
	if eqPtr(*dst, src) {
		return
	}
	*dst = copyPtr(src)
	*c = append(*c, name)
}

func (c *changes) time(name string, dst *time.Time, src time.Time) {
	if src.IsZero() || dst.Equal(src) {
		return
	}
	*dst = src.UTC()
	*c = append(*c, name)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
