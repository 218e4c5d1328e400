package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable matches any DataUnavailableError.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidParameter matches any InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// DataUnavailableError reports a region whose source could not be fetched or parsed.
// It fails the whole load.
type DataUnavailableError struct {
	Region string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Region == "" {
		return fmt.Sprintf("data unavailable: %v", e.Err)
	}
	return fmt.Sprintf("data unavailable for region %q: %v", e.Region, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// InvalidParameterError rejects a request before any computation starts.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

func invalidParam(param, format string, args ...any) error {
	return &InvalidParameterError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
