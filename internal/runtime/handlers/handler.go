// Package handlers turns retrieved messages and status records into
// formatted event lines. Four handler kinds exist: default (raw payloads),
// status (channel status), event (broker monitoring events) and error
// (broker error messages). Each is built once per poller from a flat option
// bag and owned by that poller.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/drblury/mqflow/internal/runtime/blobstore"
	"github.com/drblury/mqflow/internal/runtime/format"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/internal/runtime/sink"
)

// Kind tells the poller how to retrieve input for a handler.
type Kind int

const (
	// KindQueue handlers receive one message per call.
	KindQueue Kind = iota
	// KindStatus handlers receive the status records of one channel per call.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindStatus:
		return "status"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Handler builds records for one request and emits them. Record building
// problems degrade the record; only emission failures are returned.
type Handler interface {
	Name() string
	Kind() Kind
	Handle(ctx context.Context, req Request) error
}

// Deps are the collaborators shared by every handler kind.
type Deps struct {
	Sink   sink.Sink
	Logger loggingpkg.ServiceLogger
	// BlobStore resolves out of band payloads for the error handler.
	BlobStore blobstore.Store
	// Source is the record header tag. Defaults to mqinput(<pid>).
	Source string
	// Now and Location drive record timestamps. Defaults are time.Now and
	// time.Local.
	Now      func() time.Time
	Location *time.Location
}

func (d Deps) withDefaults() Deps {
	d.Logger = loggingpkg.OrDiscard(d.Logger)
	if d.Source == "" {
		d.Source = fmt.Sprintf("mqinput(%d)", os.Getpid())
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return d
}

// base carries what every handler kind needs.
type base struct {
	name string
	kind Kind
	deps Deps
	log  loggingpkg.ServiceLogger
}

func newBase(name string, kind Kind, deps Deps) base {
	deps = deps.withDefaults()
	return base{
		name: name,
		kind: kind,
		deps: deps,
		log:  deps.Logger.With(loggingpkg.LogFields{"handler": name}),
	}
}

func (b *base) Name() string { return b.name }
func (b *base) Kind() Kind   { return b.kind }

func (b *base) now() time.Time {
	return b.deps.Now()
}

// record starts a record stamped with ts and tagged with the request's
// manager and target.
func (b *base) record(ts time.Time, req Request, targetField string) *format.Record {
	return b.header(ts, req).Add(targetField, req.Target)
}

func (b *base) header(ts time.Time, req Request) *format.Record {
	r := format.NewRecord(ts.In(b.deps.Location), req.Host, b.deps.Source)
	return r.Add("queue_manager", req.Manager)
}

func (b *base) emit(ctx context.Context, req Request, r *format.Record) error {
	if err := b.deps.Sink.Emit(ctx, req.Host, format.Format(r)); err != nil {
		return fmt.Errorf("%s handler: %w", b.name, err)
	}
	return nil
}

func (b *base) logger(req Request) loggingpkg.ServiceLogger {
	return b.log.With(loggingpkg.LogFields{"manager": req.Manager, "target": req.Target})
}
