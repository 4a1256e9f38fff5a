package chain

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/mirror/core/invoke"
	"github.com/anoideaopen/mirror/core/telemetry"
)

// RunAsync runs thunk on a new goroutine and returns at once. onComplete
// receives the outcome exactly once, from that goroutine. A panic in thunk
// is reported as an error matching invoke.ErrPanic. There is no timeout and
// no cancellation: ctx is only handed to thunk.
func RunAsync(ctx context.Context, thunk func(ctx context.Context) (any, error), onComplete func(v any, err error)) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		v, err := protect(ctx, thunk)
		if onComplete != nil {
			onComplete(v, err)
		}
	}()
}

func protect(ctx context.Context, thunk func(ctx context.Context) (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", invoke.ErrPanic, r)
		}
	}()

	return thunk(ctx)
}

// Async runs the rest of the chain on a new goroutine: step, usually ending
// with a terminal operation, or Get when step is nil. onComplete receives
// the outcome. With a handler registered, failures go to the handler and
// onComplete receives nil values. The chain must not be used by the caller
// after Async.
func (b *Bound) Async(step func(b *Bound) (any, error), onComplete func(v any, err error)) {
	if step == nil {
		step = (*Bound).Get
	}

	b.s.async(func() (any, error) {
		return step(b)
	}, onComplete)
}

// Async is Bound.Async for a chain without an instance, typically ending
// with a static call or a static field read.
func (c *Chain) Async(step func(c *Chain) (any, error), onComplete func(v any, err error)) {
	if step == nil {
		step = (*Chain).Get
	}

	c.s.async(func() (any, error) {
		return step(c)
	}, onComplete)
}

func (s *state) async(step func() (any, error), onComplete func(v any, err error)) {
	ctx, span := s.engine.tracing.StartNewSpan(s.ctx, "mirror.async", trace.WithAttributes(
		telemetry.ChainID(s.id),
		telemetry.Class(s.className()),
	))
	s.ctx = ctx

	RunAsync(ctx, func(context.Context) (any, error) {
		return step()
	}, func(v any, err error) {
		s.terminated = true
		if err != nil && s.handler != nil {
			err = s.fail("async", err)
		}
		telemetry.EndSpan(span, err)

		if onComplete != nil {
			onComplete(v, err)
		}
	})
}
