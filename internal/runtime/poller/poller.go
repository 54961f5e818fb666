// Package poller runs the poll-and-dispatch loop: connect to the queue
// manager, drain every target in order, hand each item to the record
// handler, then wait for the next cycle.
//
// A poller stops when its context is cancelled, when its liveness
// generation has been superseded, or on an unexpected failure. Transport
// failures only end the current cycle.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/handlers"
	"github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/internal/runtime/metrics"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/transport"
)

// TracerName names the tracer dispatch spans are created with.
const TracerName = "github.com/drblury/mqflow/poller"

// ErrSuperseded is returned by Run when a newer generation took over.
var ErrSuperseded = errors.New("mqflow: poller generation superseded")

// Target is one queue to drain or one channel to inquire.
type Target struct {
	Name string
	Kind handlers.Kind
}

// Config describes what one poller polls.
type Config struct {
	Manager     string
	Credentials transport.Credentials
	// Host is carried into every request for the record header.
	Host    string
	Targets []Target
	// Interval is the idle wait between cycles.
	Interval time.Duration
	// Persistent keeps the connection open across cycles. Otherwise it is
	// closed at the end of every cycle.
	Persistent bool
	// Generation is the token this poller was started with.
	Generation string
}

// Poller owns one connection and one handler instance.
type Poller struct {
	client   mqclient.Client
	handler  handlers.Handler
	liveness Liveness
	cfg      Config

	log     logging.ServiceLogger
	hooks   DispatchHooks
	metrics *metrics.Metrics
	tracer  trace.Tracer
	sleep   func(ctx context.Context, d time.Duration) error

	conn mqclient.Connection
}

// Option configures a Poller.
type Option func(*Poller)

func WithLogger(log logging.ServiceLogger) Option {
	return func(p *Poller) { p.log = logging.OrDiscard(log) }
}

// WithHooks adds dispatch hooks after the ones already set.
func WithHooks(h DispatchHooks) Option {
	return func(p *Poller) { p.hooks = p.hooks.Merge(h) }
}

// WithMetrics records dispatches, cycles and transport failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
		p.hooks = p.hooks.Merge(MetricsHooks(m))
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Poller) { p.tracer = t }
}

// WithSleep replaces the idle wait. Tests use it to run cycles back to back.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) { p.sleep = sleep }
}

// New builds a poller. Every target must match the handler kind.
func New(client mqclient.Client, handler handlers.Handler, liveness Liveness, cfg Config, opts ...Option) (*Poller, error) {
	if client == nil {
		return nil, errspkg.ErrClientRequired
	}
	if handler == nil {
		return nil, errspkg.ErrHandlerRequired
	}
	if liveness == nil {
		return nil, errspkg.ErrLivenessRequired
	}
	if cfg.Manager == "" {
		return nil, errspkg.ErrManagerRequired
	}
	if len(cfg.Targets) == 0 {
		return nil, errspkg.ErrTargetsRequired
	}
	for _, t := range cfg.Targets {
		if t.Kind != handler.Kind() {
			return nil, errspkg.NewConfigValidationError(fmt.Errorf("target %q is a %s target but handler %q polls %s targets", t.Name, t.Kind, handler.Name(), handler.Kind()))
		}
	}

	p := &Poller{
		client:   client,
		handler:  handler,
		liveness: liveness,
		cfg:      cfg,
		log:      logging.Discard(),
		tracer:   otel.Tracer(TracerName),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logging.LogFields{"manager": cfg.Manager, "handler": handler.Name()})
	return p, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run polls until ctx is cancelled, the generation is superseded or an
// unexpected error occurs. Cancellation returns nil; supersession returns
// ErrSuperseded; anything else is the fatal error.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Poller started", logging.LogFields{"targets": len(p.cfg.Targets), "persistent": p.cfg.Persistent})
	defer p.disconnect()

	for {
		err := p.cycle(ctx)
		if !p.cfg.Persistent {
			p.disconnect()
		}
		if err != nil {
			return p.stop(ctx, err)
		}
		if p.metrics != nil {
			p.metrics.RecordCycle(p.cfg.Manager)
		}

		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return p.stop(ctx, err)
		}
	}
}

func (p *Poller) stop(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		p.log.Info("Poller stopped", nil)
		return nil
	case errors.Is(err, ErrSuperseded):
		p.log.Info("Poller superseded by a newer generation, stopping", logging.LogFields{"generation": p.cfg.Generation})
		return ErrSuperseded
	}
	p.log.Error("Unexpected failure, stopping poller", err, nil)
	return err
}

// cycle connects when needed and drains every target once. Transport
// failures are logged and end the cycle without error.
func (p *Poller) cycle(ctx context.Context) error {
	if p.conn == nil || !p.conn.IsConnected() {
		if err := p.connect(ctx); err != nil {
			return p.backoff(err, "")
		}
	}

	for _, t := range p.cfg.Targets {
		if err := p.drain(ctx, t); err != nil {
			return p.backoff(err, t.Name)
		}
	}
	return nil
}

func (p *Poller) connect(ctx context.Context) error {
	if err := p.checkGeneration(ctx); err != nil {
		return err
	}
	if p.conn != nil {
		p.disconnect()
	}
	conn, err := p.client.Connect(ctx, p.cfg.Manager, p.cfg.Credentials)
	if err != nil {
		return err
	}
	p.conn = conn
	if p.metrics != nil {
		p.metrics.RecordConnect(p.cfg.Manager)
	}
	p.log.Debug("Connected to queue manager", nil)
	return nil
}

// backoff classifies a cycle failure: transport errors drop the connection
// and let the loop wait for the next cycle, everything else is returned.
func (p *Poller) backoff(err error, target string) error {
	if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if mqclient.IsTransportError(err) {
		p.log.Error("Transport failure, reconnecting next cycle", err, logging.LogFields{"target": target})
		if p.metrics != nil {
			p.metrics.RecordTransportError(p.cfg.Manager)
		}
		p.disconnect()
		return nil
	}
	return err
}

func (p *Poller) checkGeneration(ctx context.Context) error {
	current, err := p.liveness.Current(ctx)
	if err != nil {
		return err
	}
	if current != p.cfg.Generation {
		return ErrSuperseded
	}
	return nil
}

// drain retrieves from t until it reports no more data. Status targets are
// inquired once per cycle.
func (p *Poller) drain(ctx context.Context, t Target) error {
	log := p.log.With(logging.LogFields{"target": t.Name})
	for {
		if err := p.checkGeneration(ctx); err != nil {
			return err
		}

		if t.Kind == handlers.KindStatus {
			records, err := p.conn.InquireStatus(ctx, t.Name)
			switch {
			case errors.Is(err, mqclient.ErrUnknownObject):
				log.Info("Channel does not exist", nil)
				return nil
			case errors.Is(err, mqclient.ErrStatusNotFound):
				log.Debug("No status for channel", nil)
				return nil
			case err != nil:
				return err
			}
			p.dispatch(ctx, handlers.Request{Host: p.cfg.Host, Manager: p.cfg.Manager, Target: t.Name, Status: records})
			return nil
		}

		msg, err := p.conn.GetNext(ctx, t.Name)
		switch {
		case errors.Is(err, mqclient.ErrNoMoreData):
			return nil
		case errors.Is(err, mqclient.ErrUnknownObject):
			log.Info("Queue does not exist", nil)
			return nil
		case err != nil:
			return err
		}
		p.dispatch(ctx, handlers.Request{Host: p.cfg.Host, Manager: p.cfg.Manager, Target: t.Name, Message: msg})
	}
}

// dispatch runs the handler inside a span. Handler errors and panics are
// logged and never end the cycle.
func (p *Poller) dispatch(ctx context.Context, req handlers.Request) {
	dc := DispatchContext{
		Handler:   p.handler.Name(),
		Manager:   req.Manager,
		Target:    req.Target,
		StartedAt: time.Now(),
	}
	if req.Message != nil {
		dc.MessageID = req.Message.ID
	}

	ctx, span := p.tracer.Start(ctx, "mqflow.dispatch", trace.WithAttributes(
		attribute.String("mq.manager", req.Manager),
		attribute.String("mq.target", req.Target),
		attribute.String("mq.handler", dc.Handler),
		attribute.String("message.uuid", dc.MessageID),
	))
	defer span.End()

	p.hooks.start(dc)
	err := p.invoke(ctx, req)
	dc.Duration = time.Since(dc.StartedAt)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Error("Record handler failed", err, logging.LogFields{"target": req.Target, "message_id": dc.MessageID})
	}
	p.hooks.done(dc, err)
}

func (p *Poller) invoke(ctx context.Context, req handlers.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v", p.handler.Name(), r)
		}
	}()
	return p.handler.Handle(ctx, req)
}

func (p *Poller) disconnect() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Disconnect(); err != nil {
		p.log.Warn("Failed to disconnect", logging.LogFields{"error": err.Error()})
	}
	p.conn = nil
}
