package usecase

import (
	"errors"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

var (
	// ErrUnknownJob is returned when a trigger names a job without a registered body.
	ErrUnknownJob = schedule.ErrUnknownJob
	// ErrInvalidArgument is returned for out-of-range paging or malformed parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)
