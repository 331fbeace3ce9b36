package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoCapture is returned by a callback from a run whose guard never held.
	ErrNoCapture = errors.New("no capture occurred")
	// ErrStepQuotaExceeded is returned when a Loop runs past its StepQuota.
	ErrStepQuotaExceeded = errors.New("step quota exceeded")
)

// ArgumentError reports a rejected input. It matches ErrInvalidArgument
// under errors.Is.
type ArgumentError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s = %v", ErrInvalidArgument, e.Name, e.Value)
	}
	return fmt.Sprintf("%s: %s = %v (%s)", ErrInvalidArgument, e.Name, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidArgument(name string, value any, format string, args ...any) error {
	return &ArgumentError{Name: name, Value: value, Reason: fmt.Sprintf(format, args...)}
}
