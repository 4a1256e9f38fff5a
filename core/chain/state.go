package chain

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/invoke"
	"github.com/anoideaopen/mirror/core/logger"
	"github.com/anoideaopen/mirror/core/reflectx"
	"github.com/anoideaopen/mirror/core/telemetry"
)

// Error types.
var (
	ErrChainState      = errors.New("chain state error")
	ErrChainTerminated = errors.New("chain terminated")
	ErrInvalidOption   = errors.New("invalid engine option")
	ErrUseTarget       = errors.New("invalid use target")
)

const msgCreateFirst = "you have to call create() first"

// Handler receives the failures of a chain once registered with OnError.
type Handler func(err error)

// state is shared by the phases of one chain.
type state struct {
	engine *Engine
	ctx    context.Context
	id     string
	cls    *class.Class

	instance  reflect.Value
	result    any
	hasResult bool

	handler    Handler
	failed     error
	terminated bool
}

func (s *state) bound() bool {
	return s.instance.IsValid()
}

func (s *state) className() string {
	if s.cls == nil {
		return ""
	}
	return s.cls.Name()
}

// step runs one fluent operation. Steps after a failure are skipped; steps
// after a terminal operation fail with ErrChainTerminated.
func (s *state) step(op, member string, fn func(span trace.Span) error) {
	if s.terminated {
		s.fail(op, fmt.Errorf("%w: %s after a terminal operation", ErrChainTerminated, op))
		return
	}
	if s.failed != nil {
		logger.Logger().Debugf("chain %s: %s %s skipped", s.id, op, member)
		return
	}

	if err := s.trace(op, member, fn); err != nil {
		s.fail(op, err)
	}
}

// terminal runs a terminal operation and ends the chain. With a handler
// registered every failure is absorbed and the result is nil.
func (s *state) terminal(op, member string, fn func(span trace.Span) (any, error)) (any, error) {
	if s.terminated {
		return nil, s.fail(op, fmt.Errorf("%w: %s after a terminal operation", ErrChainTerminated, op))
	}
	s.terminated = true

	if s.failed != nil {
		if s.handler != nil {
			return nil, nil
		}
		return nil, s.failed
	}

	var out any
	err := s.trace(op, member, func(span trace.Span) error {
		var err error
		out, err = fn(span)
		return err
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	return out, nil
}

func (s *state) trace(op, member string, fn func(span trace.Span) error) error {
	_, span := s.engine.tracing.StartNewSpan(s.ctx, "mirror."+op, trace.WithAttributes(
		telemetry.ChainID(s.id),
		telemetry.Class(s.className()),
		telemetry.Member(member),
	))

	err := fn(span)
	telemetry.EndSpan(span, err)

	if err == nil {
		logger.Logger().Debugf("chain %s: %s %s.%s", s.id, op, s.className(), member)
	}

	return err
}

// fail records the first failure and hands err to the handler. It returns
// nil when the handler absorbed err.
func (s *state) fail(op string, err error) error {
	if s.failed == nil {
		s.failed = err
	}

	if s.handler != nil {
		logger.Logger().Warningf("chain %s: %s failed, passed to handler: %v", s.id, op, err)
		s.handler(err)
		return nil
	}

	logFailure(s, op, err)

	return err
}

func (s *state) onError(h Handler) {
	s.handler = h
	if h != nil && s.failed != nil {
		logger.Logger().Warningf("chain %s: pending failure passed to handler: %v", s.id, s.failed)
		h(s.failed)
	}
}

func logFailure(s *state, op string, err error) {
	logger.Logger().Debugf("chain %s: %s failed: %v", s.id, op, err)
}

func (s *state) create(args []any) {
	s.step("create", s.className(), func(span trace.Span) error {
		match, err := class.FindConstructor(s.cls, args)
		if err != nil {
			return err
		}
		return s.construct(span, match)
	})
}

func (s *state) createWithTypes(types []reflect.Type, args []any) {
	s.step("create", s.className(), func(span trace.Span) error {
		match, err := class.FindConstructorWithTypes(s.cls, types, args)
		if err != nil {
			return err
		}
		return s.construct(span, match)
	})
}

func (s *state) construct(span trace.Span, match *class.Match) error {
	span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

	v, err := invoke.Construct(s.resolved(match))
	if err != nil {
		return err
	}

	s.instance = v
	s.result, s.hasResult = nil, false

	return nil
}

func (s *state) call(name string, args []any) {
	s.step("call", name, func(span trace.Span) error {
		match, err := class.FindMethod(s.cls, name, args, s.bound())
		if err != nil {
			return err
		}
		return s.invoke(span, match)
	})
}

func (s *state) callWithTypes(name string, types []reflect.Type, args []any) {
	s.step("call", name, func(span trace.Span) error {
		match, err := class.FindMethodWithTypes(s.cls, name, types, args, s.bound())
		if err != nil {
			return err
		}
		return s.invoke(span, match)
	})
}

func (s *state) callText(name string, args []string) {
	s.step("call", name, func(span trace.Span) error {
		match, err := class.FindMethodText(s.cls, name, args, s.bound())
		if err != nil {
			return err
		}
		return s.invoke(span, match)
	})
}

func (s *state) invoke(span trace.Span, match *class.Match) error {
	span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

	res, err := invoke.Invoke(s.resolved(match), s.instance)
	if err != nil {
		return err
	}
	if !res.Void {
		s.result, s.hasResult = res.Value(), true
	}

	return nil
}

// callWithResult calls name on the previous result, or on the instance when
// there is none, and moves the chain onto the returned value.
func (s *state) callWithResult(name string, args []any) {
	s.step("call_with_result", name, func(span trace.Span) error {
		recv := s.instance
		if s.hasResult {
			if !present(s.result) {
				return fmt.Errorf("%w: cannot call %s on the nil result of the previous call", ErrChainState, name)
			}
			recv = reflect.ValueOf(s.result)
		}
		if !recv.IsValid() {
			return fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
		}

		cls := s.engine.registry.Describe(recv.Type())
		recv = invoke.Normalize(cls, recv)

		match, err := class.FindMethod(cls, name, args, true)
		if err != nil {
			return err
		}
		span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

		res, err := invoke.Invoke(s.resolved(match), recv)
		if err != nil {
			return err
		}
		if res.Void {
			return nil
		}

		s.result, s.hasResult = res.Value(), true
		if present(s.result) {
			rv := reflect.ValueOf(s.result)
			s.cls = s.engine.registry.Describe(rv.Type())
			s.instance = invoke.Normalize(s.cls, rv)
		}

		return nil
	})
}

func (s *state) set(name string, value any) {
	s.step("set", name, func(span trace.Span) error {
		match, err := class.FindField(s.cls, name, s.bound())
		if err != nil {
			return err
		}
		span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

		return invoke.WriteField(s.resolved(match), s.instance, value)
	})
}

// with attaches v as the instance. v is of the chain class or embeds it, in
// which case the embedded value becomes the instance.
func (s *state) with(v any) {
	s.step("with", s.className(), func(trace.Span) error {
		if v == nil {
			return fmt.Errorf("%w: nil instance", ErrChainState)
		}

		rv := reflect.ValueOf(v)
		ic := s.engine.registry.Describe(rv.Type())
		rv = invoke.Normalize(ic, rv)
		if ic == s.cls {
			s.instance = rv
			return nil
		}

		path, ok := ic.PathTo(s.cls.Type())
		if !ok {
			return fmt.Errorf("%w: %s does not embed %s", ErrChainState, ic.Name(), s.cls.Name())
		}

		embedded, err := invoke.Descend(rv, path)
		if err != nil {
			return err
		}
		if embedded.Kind() != reflect.Pointer && embedded.CanAddr() {
			embedded = embedded.Addr()
		}

		s.instance = invoke.Normalize(s.cls, embedded)

		return nil
	})
}

// read returns the value of the field name.
func (s *state) read(span trace.Span, name string) (any, error) {
	match, err := class.FindField(s.cls, name, s.bound())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

	v, err := invoke.ReadField(s.resolved(match), s.instance)
	if err != nil {
		return nil, err
	}

	return v.Interface(), nil
}

func (s *state) get() (any, error) {
	return s.terminal("get", "", func(trace.Span) (any, error) {
		return s.current()
	})
}

func (s *state) getResult() (any, error) {
	return s.terminal("get_result", "", func(trace.Span) (any, error) {
		return s.result, nil
	})
}

func (s *state) getInstance() (any, error) {
	return s.terminal("get_instance", "", func(trace.Span) (any, error) {
		if !s.bound() {
			return nil, fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
		}
		return s.instance.Interface(), nil
	})
}

func (s *state) readField(name string) (any, error) {
	return s.terminal("read", name, func(span trace.Span) (any, error) {
		return s.read(span, name)
	})
}

func (s *state) getField(name string) any {
	v, err := s.readField(name)
	if err != nil {
		return nil
	}
	return v
}

func (s *state) simpleCall(name string, args []any) (any, error) {
	s.call(name, args)
	return s.get()
}

func (s *state) simpleSet(name string, value any) (any, error) {
	s.set(name, value)
	return s.readField(name)
}

// current is the value Get returns: the last result that is not nil, else
// the instance, else the nil result of a call made without an instance.
func (s *state) current() (any, error) {
	switch {
	case s.hasResult && present(s.result):
		return s.result, nil
	case s.bound():
		return s.instance.Interface(), nil
	case s.hasResult:
		return s.result, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
	}
}

func (s *state) resolved(match *class.Match) *class.Match {
	return s.engine.escalate(match)
}

// forward is the call path of proxies: a call on the current instance that
// ignores the terminated flag and leaves the chain state untouched.
func (s *state) forward(name string, args []any) (any, error) {
	if !s.bound() {
		return nil, fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
	}

	var out any
	err := s.trace("proxy", name, func(span trace.Span) error {
		match, err := class.FindMethod(s.cls, name, args, true)
		if err != nil {
			return err
		}
		span.SetAttributes(telemetry.MemberKind(match.Member.Kind))

		res, err := invoke.Invoke(s.resolved(match), s.instance)
		if err != nil {
			return err
		}
		out = res.Value()

		return nil
	})

	return out, err
}

// present reports whether v holds a value that is not a nil reference.
func present(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	if reflectx.IsNillable(rv.Type()) {
		return !rv.IsNil()
	}

	return true
}
