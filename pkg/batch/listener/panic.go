package listener

import (
	"fmt"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
)

// PanicError reports a listener that panicked.
type PanicError struct {
	Listener job.RunListener
	Value    interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%T panicked: %v", e.Listener, e.Value)
}
