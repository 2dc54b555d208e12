package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span failed. attrs are attached to the recorded error event.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetOutcome records an action result on span: ok spans get an Ok status,
// failed ones an error carrying reason.
func SetOutcome(span trace.Span, ok bool, reason string) {
	if ok {
		span.SetStatus(codes.Ok, "")

		return
	}

	span.SetAttributes(attribute.String(ReasonKey, reason))
	span.SetStatus(codes.Error, reason)
}
