package handlers

import (
	"slices"
	"strings"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
)

// Handler names accepted in configuration.
const (
	NameDefault = "default"
	NameStatus  = "status"
	NameEvent   = "event"
	NameError   = "error"
)

// Factory builds a handler from its parsed options.
type Factory func(opts Options, deps Deps) (Handler, error)

// Registry maps configuration names to handler factories. It is resolved
// once at startup.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in handler kinds.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{
		NameDefault: func(o Options, d Deps) (Handler, error) { return NewDefaultHandler(o, d) },
		NameStatus:  func(o Options, d Deps) (Handler, error) { return NewStatusHandler(o, d) },
		NameEvent:   func(o Options, d Deps) (Handler, error) { return NewEventHandler(o, d) },
		NameError:   func(o Options, d Deps) (Handler, error) { return NewErrorHandler(o, d) },
	}}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the handler registered under name. Unknown names and invalid
// options are reported as configuration errors.
func (r *Registry) New(name string, args map[string]string, deps Deps) (Handler, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	factory, ok := r.factories[key]
	if !ok {
		return nil, errspkg.NewConfigValidationError(&errspkg.UnknownHandlerError{Name: name, Registered: r.Names()})
	}
	if deps.Sink == nil {
		return nil, errspkg.ErrSinkRequired
	}

	h, err := factory(NewOptions(key, args), deps)
	if err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}
	return h, nil
}
