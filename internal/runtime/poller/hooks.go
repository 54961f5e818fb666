package poller

import (
	"time"

	"github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/internal/runtime/metrics"
)

// DispatchContext describes one handler invocation to hooks.
type DispatchContext struct {
	// Handler is the name of the record handler.
	Handler string
	Manager string
	Target  string
	// MessageID is the transport id of the message, empty for status queries.
	MessageID string
	// StartedAt is when the invocation started.
	StartedAt time.Time
	// Duration is set in OnDispatchDone and OnDispatchError.
	Duration time.Duration
}

// DispatchHooks are optional callbacks around every handler invocation.
// Nil hooks are skipped.
type DispatchHooks struct {
	OnDispatchStart func(ctx DispatchContext)
	OnDispatchDone  func(ctx DispatchContext)
	// OnDispatchError receives handler errors and recovered panics.
	OnDispatchError func(ctx DispatchContext, err error)
}

// Merge returns hooks calling h first and other second.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnDispatchStart: chain(h.OnDispatchStart, other.OnDispatchStart),
		OnDispatchDone:  chain(h.OnDispatchDone, other.OnDispatchDone),
		OnDispatchError: chainError(h.OnDispatchError, other.OnDispatchError),
	}
}

func chain(a, b func(DispatchContext)) func(DispatchContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext) {
		a(ctx)
		b(ctx)
	}
}

func chainError(a, b func(DispatchContext, error)) func(DispatchContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

func (h DispatchHooks) start(ctx DispatchContext) {
	if h.OnDispatchStart != nil {
		h.OnDispatchStart(ctx)
	}
}

func (h DispatchHooks) done(ctx DispatchContext, err error) {
	if err != nil {
		if h.OnDispatchError != nil {
			h.OnDispatchError(ctx, err)
		}
		return
	}
	if h.OnDispatchDone != nil {
		h.OnDispatchDone(ctx)
	}
}

// LoggingHooks trace every invocation at debug level.
func LoggingHooks(logger logging.ServiceLogger) DispatchHooks {
	logger = logging.OrDiscard(logger)
	return DispatchHooks{
		OnDispatchStart: func(ctx DispatchContext) {
			logger.Trace("Dispatch started", logging.LogFields{
				"handler":    ctx.Handler,
				"manager":    ctx.Manager,
				"target":     ctx.Target,
				"message_id": ctx.MessageID,
			})
		},
		OnDispatchDone: func(ctx DispatchContext) {
			logger.Debug("Dispatch completed", logging.LogFields{
				"handler":     ctx.Handler,
				"manager":     ctx.Manager,
				"target":      ctx.Target,
				"message_id":  ctx.MessageID,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
	}
}

// MetricsHooks record every invocation in m.
func MetricsHooks(m *metrics.Metrics) DispatchHooks {
	if m == nil {
		return DispatchHooks{}
	}
	return DispatchHooks{
		OnDispatchDone: func(ctx DispatchContext) {
			m.RecordDispatch(ctx.Manager, ctx.Target, ctx.Handler, ctx.Duration, false)
		},
		OnDispatchError: func(ctx DispatchContext, _ error) {
			m.RecordDispatch(ctx.Manager, ctx.Target, ctx.Handler, ctx.Duration, true)
		},
	}
}
