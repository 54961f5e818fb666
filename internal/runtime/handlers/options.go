package handlers

import (
	"errors"
	"strconv"
	"strings"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
)

var errNotBool = errors.New("expected true or false")

// Options is the flat option bag of one handler. Names are matched case
// insensitively; unknown names are ignored.
type Options struct {
	handler string
	args    map[string]string
}

// NewOptions normalises args for handler.
func NewOptions(handler string, args map[string]string) Options {
	norm := make(map[string]string, len(args))
	for k, v := range args {
		norm[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return Options{handler: handler, args: norm}
}

func (o Options) invalid(name, value string, err error) error {
	return &errspkg.InvalidOptionError{Handler: o.handler, Option: name, Value: value, Err: err}
}

// Has reports whether name was given.
func (o Options) Has(name string) bool {
	_, ok := o.args[name]
	return ok
}

// String returns the raw value of name or def.
func (o Options) String(name, def string) string {
	if v, ok := o.args[name]; ok && v != "" {
		return v
	}
	return def
}

// Bool parses name as a boolean. Besides strconv's forms, yes/no and on/off
// are accepted.
func (o Options) Bool(name string, def bool) (bool, error) {
	v, ok := o.args[name]
	if !ok || v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, o.invalid(name, v, errNotBool)
	}
	return b, nil
}

// Int parses name as a decimal integer.
func (o Options) Int(name string, def int) (int, error) {
	v, ok := o.args[name]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, o.invalid(name, v, err)
	}
	return n, nil
}

// Encoding parses name as a binary encoding (false, hex, hexbinary, base64).
func (o Options) Encoding(name string, def extract.Encoding) (extract.Encoding, error) {
	v, ok := o.args[name]
	if !ok || v == "" {
		return def, nil
	}
	enc, err := extract.ParseEncoding(v)
	if err != nil {
		return def, o.invalid(name, v, err)
	}
	return enc, nil
}

// optionParser collects parse errors so option structs can be filled in
// one pass.
type optionParser struct {
	opts Options
	errs []error
}

func (p *optionParser) bool(name string, def bool) bool {
	v, err := p.opts.Bool(name, def)
	p.add(err)
	return v
}

func (p *optionParser) int(name string, def int) int {
	v, err := p.opts.Int(name, def)
	p.add(err)
	return v
}

func (p *optionParser) encoding(name string, def extract.Encoding) extract.Encoding {
	v, err := p.opts.Encoding(name, def)
	p.add(err)
	return v
}

func (p *optionParser) string(name, def string) string {
	return p.opts.String(name, def)
}

func (p *optionParser) add(err error) {
	if err != nil {
		p.errs = append(p.errs, err)
	}
}

func (p *optionParser) err() error {
	return errors.Join(p.errs...)
}
