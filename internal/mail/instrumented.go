package mail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/saige-footwear/contact-relay/internal/obs"
)

// Instrumented wraps a Sender with a span and Prometheus counters per attempt.
type Instrumented struct {
	Next Sender
}

// Send implements Sender.
func (i Instrumented) Send(ctx context.Context, msg Message) error {
	tag := msg.Tag
	if tag == "" {
		tag = "untagged"
	}
	ctx, span := otel.Tracer("mail").Start(ctx, "mail.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("mail.tag", tag)),
	)
	defer span.End()

	start := time.Now()
	err := i.Next.Send(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail send failed")
	}
	obs.ObserveMailSend(tag, result, time.Since(start))
	return err
}
