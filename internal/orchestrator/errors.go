package orchestrator

import "errors"

// ValidationError marks a caller mistake: bad task, bad upload, bad form.
type ValidationError struct {
    Message string
}

func (e *ValidationError) Error() string {
    return e.Message
}

// ErrBusy is returned when every inference slot is taken.
var ErrBusy = errors.New("inference capacity exhausted")
