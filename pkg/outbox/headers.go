// Package outbox carries request context (trace + correlation id) across the
// outbox table and the broker.
package outbox

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/orderdesk/pkg/correlationid"
)

// BuildHeaders creates headers map with trace context and correlation ID injected from context.
func BuildHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := correlationid.FromContext(ctx); ok {
		headers[correlationid.Header] = correlationID
	}

	return headers
}

// ExtractContextFromHeaders restores trace context and correlation ID from a headers map.
func ExtractContextFromHeaders(ctx context.Context, headers map[string]string) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := headers[correlationid.Header]; ok {
		ctx = correlationid.NewContext(ctx, correlationID)
	}

	return ctx
}

// RecordHeaders flattens Kafka record headers; later duplicates win.
func RecordHeaders(rec *kgo.Record) map[string]string {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}
