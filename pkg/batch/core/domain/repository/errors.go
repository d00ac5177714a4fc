package repository

import "errors"

var (
	// ErrJobNotFound is returned when a JobDefinition does not exist.
	ErrJobNotFound = errors.New("job definition not found")
	// ErrRunNotFound is returned when a Run does not exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotRunning is returned when progress is written to a run that already ended.
	ErrRunNotRunning = errors.New("run is no longer running")
	// ErrEntityNotFound is returned when a synced entity does not exist.
	ErrEntityNotFound = errors.New("entity not found")
)
