package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrHandlerRequired    = sterrors.New("mqflow: record handler is required")
	ErrClientRequired     = sterrors.New("mqflow: queue client is required")
	ErrSinkRequired       = sterrors.New("mqflow: event sink is required")
	ErrTargetsRequired    = sterrors.New("mqflow: at least one poll target is required")
	ErrManagerRequired    = sterrors.New("mqflow: queue manager name is required")
	ErrLivenessRequired   = sterrors.New("mqflow: liveness token store is required")
	ErrPublisherRequired  = sterrors.New("mqflow: publisher is required")
	ErrTopicRequired      = sterrors.New("mqflow: topic is required")
	ErrConfigRequired     = sterrors.New("mqflow: configuration is required")
	ErrLoggerRequired     = sterrors.New("mqflow: logger is required")
	ErrBlobStoreRequired  = sterrors.New("mqflow: blob store is required")
	ErrInvalidHandlerArgs = sterrors.New("mqflow: invalid handler arguments")
)

// ConfigValidationError marks an error as a configuration problem detected
// before any poller was started.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "mqflow: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil for a nil err.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// UnknownHandlerError is returned when a handler kind is not registered.
type UnknownHandlerError struct {
	Name       string
	Registered []string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("unknown record handler %q (registered: %v)", e.Name, e.Registered)
}

// InvalidOptionError reports a handler option whose value could not be parsed.
type InvalidOptionError struct {
	Handler string
	Option  string
	Value   string
	Err     error
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("%s handler: option %s=%q: %v", e.Handler, e.Option, e.Value, e.Err)
}

func (e *InvalidOptionError) Unwrap() error {
	return e.Err
}
