// Package core opens reflective chains on a process-wide default engine.
//
//	if _, err := core.Register[fixture.TestClass](opts...); err != nil { ... }
//
//	name, err := core.On("TestClass").Create("Tom", 12).Read("name")
//
// Packages needing their own registry or access policy build a
// chain.Engine instead.
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/op/go-logging"

	"github.com/anoideaopen/mirror/core/chain"
	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/config"
	"github.com/anoideaopen/mirror/core/logger"
	"github.com/anoideaopen/mirror/core/telemetry"
)

var (
	mu            sync.RWMutex
	defaultEngine *chain.Engine
)

// Engine returns the default engine, creating it on first use.
func Engine() *chain.Engine {
	mu.RLock()
	e := defaultEngine
	mu.RUnlock()
	if e != nil {
		return e
	}

	mu.Lock()
	defer mu.Unlock()

	if defaultEngine == nil {
		var err error
		if defaultEngine, err = chain.NewEngine(); err != nil {
			panic(fmt.Sprintf("default engine: %v", err))
		}
	}

	return defaultEngine
}

// SetEngine replaces the default engine and returns the previous one.
func SetEngine(e *chain.Engine) *chain.Engine {
	mu.Lock()
	defer mu.Unlock()

	prev := defaultEngine
	defaultEngine = e

	return prev
}

// Logger returns the logger of the module.
func Logger() *logging.Logger {
	return logger.Logger()
}

// On opens a chain on a class: a name, a reflect.Type or a *class.Class.
func On(ref any) *chain.Chain {
	return Engine().Open(ref)
}

// OnContext is On with the context the spans of the chain descend from.
func OnContext(ctx context.Context, ref any) *chain.Chain {
	return Engine().OpenContext(ctx, ref)
}

// OnInstance opens a chain on an existing instance.
func OnInstance(v any) *chain.Bound {
	return Engine().OpenInstance(v)
}

// Register describes T in the registry of the default engine.
func Register[T any](opts ...class.Option) (*class.Class, error) {
	return Engine().Registry().Register(class.TypeOf[T](), opts...)
}

// SimpleCall opens a chain on ref, calls the static method name and returns
// its result.
func SimpleCall(ref any, name string, args ...any) (any, error) {
	return On(ref).SimpleCall(name, args...)
}

// SimpleSet opens a chain on ref, writes the static field name and returns
// the value read back.
func SimpleSet(ref any, name string, value any) (any, error) {
	return On(ref).SimpleSet(name, value)
}

// Configure applies cfg: the logger backend, the access policy of the
// default engine and the global tracer provider. The returned func flushes
// and stops the span exporter.
func Configure(cfg *config.Config) (shutdown func(context.Context) error, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if err = logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	Engine().SetPolicy(cfg.Policy())

	shutdown, err = telemetry.InstallTraceProvider(cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("installing trace provider: %w", err)
	}

	Logger().Infof("mirror configured: access mode %s", cfg.Access.Mode)

	return shutdown, nil
}
