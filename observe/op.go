package observe

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans, metrics and log entries.
const (
	AttrOp           = "imagecache.op"
	AttrStore        = "imagecache.store"
	AttrDefaultStore = "imagecache.default_store"
	AttrDestination  = "imagecache.destination"
	AttrOutcome      = "imagecache.outcome"
	AttrError        = "imagecache.error"
)

// OpMeta describes one instrumented operation.
type OpMeta struct {
	Name        string // operation name, e.g. "resolve" (required)
	Store       string // store scope (optional)
	Destination string // image destination (optional)
}

// SpanName returns the span name for the operation: imagecache.<name>.
func (m OpMeta) SpanName() string {
	return "imagecache." + m.Name
}

// Validate reports whether the metadata can be recorded.
func (m OpMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingOpName
	}
	return nil
}

// Attributes returns the non-empty attributes describing the operation.
func (m OpMeta) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrOp, m.Name)}
	if m.Store != "" {
		attrs = append(attrs, attribute.String(AttrStore, m.Store))
	}
	if m.Destination != "" {
		attrs = append(attrs, attribute.String(AttrDestination, m.Destination))
	}
	return attrs
}
