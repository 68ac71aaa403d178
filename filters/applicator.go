// Package filters provides optional byte-stream transforms applied to
// data-connection channels: ASCII newline translation and, optionally,
// compression. A filter that can change the number of bytes on the
// wire vetoes REST/APPE/SIZE for that session, per the control
// connection's transfer-arming commands.
package filters

import "io"

// Context carries the pieces of session state a filter's activation may
// depend on, without the filters package needing to import ftp.
type Context struct {
	DataType byte // 'A' or 'I'
	Attrs    map[string]any
}

// Filter wraps a reader or writer with a byte-stream transform.
type Filter interface {
	// Name identifies the filter for logging.
	Name() string
	// ModifiesLength reports whether applying this filter can change
	// the number of bytes transferred, which makes REST/APPE/SIZE
	// unsafe to honor while it is active.
	ModifiesLength() bool
	// Active reports whether this filter should apply for ctx.
	Active(ctx Context) bool
	WrapReader(r io.Reader) io.Reader
	WrapWriter(w io.WriteCloser) io.WriteCloser
}

// Applicator is the data filter chain consulted by transfer-arming
// commands. It is consumed as an external collaborator, the way the
// filesystem and user store are.
type Applicator interface {
	// Filters returns the filters active for ctx, in application order.
	Filters(ctx Context) []Filter
	// ModifiesLength reports whether any active filter can change the
	// byte count, which the REST/APPE/SIZE handlers consult.
	ModifiesLength(ctx Context) bool
	// ApplyReader wraps r with every active filter, outermost last.
	ApplyReader(r io.Reader, ctx Context) io.Reader
	// ApplyWriter wraps w with every active filter.
	ApplyWriter(w io.WriteCloser, ctx Context) io.WriteCloser
}

// Chain is the default Applicator: a fixed, ordered list of filters
// each deciding for itself whether it is active for a given Context.
type Chain struct {
	filters []Filter
}

// NewChain builds an Applicator from a fixed filter list.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

func (c *Chain) Filters(ctx Context) []Filter {
	active := make([]Filter, 0, len(c.filters))
	for _, f := range c.filters {
		if f.Active(ctx) {
			active = append(active, f)
		}
	}
	return active
}

func (c *Chain) ModifiesLength(ctx Context) bool {
	for _, f := range c.Filters(ctx) {
		if f.ModifiesLength() {
			return true
		}
	}
	return false
}

func (c *Chain) ApplyReader(r io.Reader, ctx Context) io.Reader {
	for _, f := range c.Filters(ctx) {
		r = f.WrapReader(r)
	}
	return r
}

func (c *Chain) ApplyWriter(w io.WriteCloser, ctx Context) io.WriteCloser {
	for _, f := range c.Filters(ctx) {
		w = f.WrapWriter(w)
	}
	return w
}
