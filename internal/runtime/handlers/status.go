package handlers

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/drblury/mqflow/internal/runtime/describe"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/format"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
)

// StatusOptions configure the status handler.
type StatusOptions struct {
	IncludeZeroValues bool
	PrettyStatus      bool
}

// ParseStatusOptions reads include_zero_values and pretty_status.
func ParseStatusOptions(o Options) (StatusOptions, error) {
	p := optionParser{opts: o}
	opts := StatusOptions{
		IncludeZeroValues: p.bool("include_zero_values", false),
		PrettyStatus:      p.bool("pretty_status", true),
	}
	return opts, p.err()
}

// StatusHandler writes one record per channel status record.
type StatusHandler struct {
	base
	opts StatusOptions
}

// NewStatusHandler builds a status handler.
func NewStatusHandler(o Options, deps Deps) (*StatusHandler, error) {
	if deps.Sink == nil {
		return nil, errspkg.ErrSinkRequired
	}
	opts, err := ParseStatusOptions(o)
	if err != nil {
		return nil, err
	}
	return &StatusHandler{base: newBase(NameStatus, KindStatus, deps), opts: opts}, nil
}

func (h *StatusHandler) Handle(ctx context.Context, req Request) error {
	ts := h.now()
	var errs []error
	for _, rec := range req.Status {
		if err := h.emit(ctx, req, h.Record(ts, req, rec)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Record renders one status record. Parameters are written in ascending
// code order after the channel name, which comes from the record when it
// carries one and from the queried target otherwise.
func (h *StatusHandler) Record(ts time.Time, req Request, rec mqclient.StatusRecord) *format.Record {
	name := req.Target
	if v, ok := rec[describe.ParamChannelName].(string); ok && strings.TrimSpace(v) != "" {
		name = strings.TrimSpace(v)
	}
	r := h.header(ts, req).Add("channel_name", name)

	codes := make([]int32, 0, len(rec))
	for code := range rec {
		if code != describe.ParamChannelName {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)

	for _, code := range codes {
		p := describe.StatusParam(code)
		value := normalizeStatusValue(rec[code])
		if !describe.IncludeField(value, h.opts.IncludeZeroValues) {
			continue
		}

		if pair, ok := value.([]int64); ok && len(pair) == 2 && p.Pair != ([2]string{}) {
			r.AddPair(p.Name, p.Pair, h.describe(p, pair[0]), h.describe(p, pair[1]))
			continue
		}
		if n, ok := value.(int64); ok {
			r.Add(p.Name, h.describe(p, n))
			continue
		}
		r.Add(p.Name, value)
	}
	return r
}

func (h *StatusHandler) describe(p describe.Param, n int64) any {
	if h.opts.PrettyStatus && p.Values != nil {
		return p.Values.Describe(n)
	}
	return n
}

// normalizeStatusValue trims the blank padding of fixed width strings and
// widens integer kinds to int64.
func normalizeStatusValue(v any) any {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(x, " \x00")
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case []int32:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = strings.TrimRight(s, " \x00")
		}
		return out
	}
	return v
}
