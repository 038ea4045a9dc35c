package domain

import (
	"errors"
)

// Common domain errors
var (
	ErrQueueClosed     = errors.New("task queue closed")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidInput    = errors.New("invalid input")

	// Resolver errors
	ErrFileChanged          = errors.New("file changed or failed to write since last download attempt")
	ErrCommandChannelClosed = errors.New("command channel closed unexpectedly")
	ErrResultChannelClosed  = errors.New("task result channel closed unexpectedly")
)

// StageError ties a failure to the attempt stage it terminates.
type StageError struct {
	Stage Stage
	Err   error
}

// Error returns the error message
func (e *StageError) Error() string {
	if e.Err != nil {
		return e.Stage.String() + ": " + e.Err.Error()
	}
	return e.Stage.String()
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

// Result converts the error into the attempt's Result
func (e *StageError) Result() Result {
	if e.Err == nil {
		return NewResult(e.Stage, "")
	}
	return NewResult(e.Stage, e.Err.Error())
}

// NewStageError creates a new stage error
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage carried by err, if any
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return StageUnknownError, false
}

// ResultFromError converts any error into a Result. Errors without a stage
// become StageUnknownError.
func ResultFromError(err error) Result {
	var se *StageError
	if errors.As(err, &se) {
		return se.Result()
	}
	if err == nil {
		return NewResult(StageUnknownError, "")
	}
	return NewResult(StageUnknownError, err.Error())
}
