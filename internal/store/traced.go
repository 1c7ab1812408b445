package store

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type traced struct {
	next    Gateway
	backend string
	tracer  trace.Tracer
}

// Traced wraps g so every call runs in its own span.
func Traced(g Gateway, backend string) Gateway {
	return &traced{next: g, backend: backend, tracer: otel.Tracer("dossier-engine/store")}
}

func (t *traced) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := t.start(ctx, "store.load", key)
	defer span.End()
	raw, err := t.next.Load(ctx, key)
	t.finish(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("store.bytes", len(raw)))
	}
	return raw, err
}

func (t *traced) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := t.start(ctx, "store.save", key)
	defer span.End()
	span.SetAttributes(attribute.Int("store.bytes", len(value)))
	err := t.next.Save(ctx, key, value)
	t.finish(span, err)
	return err
}

func (t *traced) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("store.backend", t.backend),
		attribute.String("store.key", key),
	))
}

func (t *traced) finish(span trace.Span, err error) {
	if err == nil || errors.Is(err, ErrNotFound) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
