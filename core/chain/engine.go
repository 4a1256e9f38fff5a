package chain

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/anoideaopen/mirror/core/access"
	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/invoke"
	"github.com/anoideaopen/mirror/core/telemetry"
)

// Option configures an Engine.
type Option func(e *Engine) error

// Engine opens chains. It owns the class registry the chains resolve names
// against and the access policy applied to every resolved member.
type Engine struct {
	registry *class.Registry
	tracing  *telemetry.TracingHandler

	mu        sync.RWMutex
	escalator *access.Escalator
}

// WithRegistry makes the engine resolve classes in r.
func WithRegistry(r *class.Registry) Option {
	return func(e *Engine) error {
		if r == nil {
			return fmt.Errorf("%w: nil registry", ErrInvalidOption)
		}
		e.registry = r
		return nil
	}
}

// WithPolicy sets the access policy. The default is access.Permissive.
func WithPolicy(p access.Policy) Option {
	return func(e *Engine) error {
		e.escalator = access.NewEscalator(p)
		return nil
	}
}

// WithTracingHandler sets the handler starting the spans of chain steps.
func WithTracingHandler(th *telemetry.TracingHandler) Option {
	return func(e *Engine) error {
		if th == nil {
			return fmt.Errorf("%w: nil tracing handler", ErrInvalidOption)
		}
		e.tracing = th
		return nil
	}
}

// NewEngine returns an engine with a fresh registry, the permissive policy
// and the global tracer, unless options say otherwise.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:  class.NewRegistry(),
		tracing:   telemetry.NewTracingHandler(),
		escalator: access.NewEscalator(access.Permissive),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Registry returns the class registry of the engine.
func (e *Engine) Registry() *class.Registry {
	return e.registry
}

// SetPolicy replaces the access policy for the steps executed from now on.
func (e *Engine) SetPolicy(p access.Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.escalator = access.NewEscalator(p)
}

// Policy returns the access policy in force.
func (e *Engine) Policy() access.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.escalator.Policy
}

// Open starts a chain on a class. ref is a class name, a reflect.Type or a
// *class.Class. A reference that does not resolve fails the chain with
// class.ErrClassNotFound.
func (e *Engine) Open(ref any) *Chain {
	return e.OpenContext(context.Background(), ref)
}

// OpenContext is Open with the context the spans of the chain descend from.
func (e *Engine) OpenContext(ctx context.Context, ref any) *Chain {
	s := e.newState(ctx)

	cls, err := e.resolve(ref)
	if err != nil {
		s.failed = err
		logFailure(s, "open", err)
		return &Chain{s: s}
	}
	s.cls = cls

	return &Chain{s: s}
}

// OpenInstance starts a chain on an existing instance. The class is the
// dynamic type of v; a struct value is copied and held by pointer.
func (e *Engine) OpenInstance(v any) *Bound {
	return e.OpenInstanceContext(context.Background(), v)
}

// OpenInstanceContext is OpenInstance with the context the spans of the
// chain descend from.
func (e *Engine) OpenInstanceContext(ctx context.Context, v any) *Bound {
	s := e.newState(ctx)
	if v == nil {
		s.failed = fmt.Errorf("%w: nil instance", ErrChainState)
		logFailure(s, "open", s.failed)
		return &Bound{s: s}
	}

	rv := reflect.ValueOf(v)
	s.cls = e.registry.Describe(rv.Type())
	s.instance = invoke.Normalize(s.cls, rv)

	return &Bound{s: s}
}

func (e *Engine) newState(ctx context.Context) *state {
	if ctx == nil {
		ctx = context.Background()
	}

	return &state{
		engine: e,
		ctx:    ctx,
		id:     uuid.NewString(),
	}
}

func (e *Engine) resolve(ref any) (*class.Class, error) {
	switch r := ref.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil reference", class.ErrClassNotFound)
	case *class.Class:
		if r == nil {
			return nil, fmt.Errorf("%w: nil class", class.ErrClassNotFound)
		}
		return r, nil
	case reflect.Type:
		return e.registry.Describe(r), nil
	case string:
		return e.registry.Lookup(r)
	default:
		return nil, fmt.Errorf("%w: %T is not a class reference", class.ErrClassNotFound, ref)
	}
}

// escalate applies the current policy to match.
func (e *Engine) escalate(match *class.Match) *class.Match {
	e.mu.RLock()
	escalator := e.escalator
	e.mu.RUnlock()

	return escalator.Resolve(match)
}
