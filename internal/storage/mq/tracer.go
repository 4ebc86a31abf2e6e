package mq

import (
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// newKafkaTracer creates the kgo hooks that trace produce and consume calls
// and carry the trace context in record headers.
func newKafkaTracer(group string) *kotel.Tracer {
	opts := []kotel.TracerOpt{
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	}
	if group != "" {
		opts = append(opts, kotel.ConsumerGroup(group))
	}
	return kotel.NewTracer(opts...)
}
