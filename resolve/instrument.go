package resolve

import (
	"context"

	"github.com/jonwraymond/imagecache/observe"
)

// OpResolve is the operation name recorded for resolutions.
const OpResolve = "resolve"

// Instrumented records a span, metrics and a log entry for every resolution.
type Instrumented struct {
	next  SourceResolver
	store string
	exec  observe.ExecuteFunc
}

// Instrument wraps next with mw. Requests without a store are recorded
// under next's default store when next is a *Resolver.
func Instrument(next SourceResolver, mw *observe.Middleware) *Instrumented {
	i := &Instrumented{next: next}
	if r, ok := next.(*Resolver); ok {
		i.store = r.StoreID()
	}
	i.exec = mw.Wrap(func(ctx context.Context, _ observe.OpMeta, input any) (any, error) {
		return next.Resolve(ctx, input.(Request))
	})
	return i
}

// Resolve implements SourceResolver.
func (i *Instrumented) Resolve(ctx context.Context, req Request) (Resolution, error) {
	meta := observe.OpMeta{Name: OpResolve, Store: req.StoreID, Destination: req.Destination}
	if meta.Store == "" {
		meta.Store = i.store
	}

	out, err := i.exec(ctx, meta, req)
	if err != nil {
		return Resolution{}, err
	}
	return out.(Resolution), nil
}

var _ SourceResolver = (*Instrumented)(nil)
