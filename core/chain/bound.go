package chain

import (
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/proxy"
)

// Bound is a chain with an instance.
type Bound struct {
	s *state
}

// Create replaces the instance with a new one built by the constructor best
// matching args.
func (b *Bound) Create(args ...any) *Bound {
	b.s.create(args)
	return b
}

// CreateWithTypes replaces the instance with a new one built by the
// constructor whose parameter types are exactly types.
func (b *Bound) CreateWithTypes(types []reflect.Type, args ...any) *Bound {
	b.s.createWithTypes(types, args)
	return b
}

// With replaces the instance with an existing one.
func (b *Bound) With(instance any) *Bound {
	b.s.with(instance)
	return b
}

// Call invokes a method on the instance and keeps its result. The instance
// does not change.
func (b *Bound) Call(name string, args ...any) *Bound {
	b.s.call(name, args)
	return b
}

// CallWithTypes invokes the method whose parameter types are exactly types.
func (b *Bound) CallWithTypes(name string, types []reflect.Type, args ...any) *Bound {
	b.s.callWithTypes(name, types, args)
	return b
}

// CallText invokes the first method whose parameters decode from args.
func (b *Bound) CallText(name string, args ...string) *Bound {
	b.s.callText(name, args)
	return b
}

// CallWithResult invokes a method on the result of the previous call, or on
// the instance before any call. The returned value becomes both the result
// and the instance, and the class of the chain follows its type.
func (b *Bound) CallWithResult(name string, args ...any) *Bound {
	b.s.callWithResult(name, args)
	return b
}

// Set writes a field of the instance or a static field.
func (b *Bound) Set(name string, value any) *Bound {
	b.s.set(name, value)
	return b
}

// OnError registers h. A failure that already happened is passed to h at once.
func (b *Bound) OnError(h Handler) *Bound {
	b.s.onError(h)
	return b
}

// Class returns the class of the chain.
func (b *Bound) Class() *class.Class {
	return b.s.cls
}

// Err returns the first failure of the chain.
func (b *Bound) Err() error {
	return b.s.failed
}

// Get returns the result of the last call when it is not nil, the instance
// otherwise.
func (b *Bound) Get() (any, error) {
	return b.s.get()
}

// GetResult returns the result of the last call, nil without one.
func (b *Bound) GetResult() (any, error) {
	return b.s.getResult()
}

// GetInstance returns the instance whatever the calls returned.
func (b *Bound) GetInstance() (any, error) {
	return b.s.getInstance()
}

// Read returns the value of a field.
func (b *Bound) Read(name string) (any, error) {
	return b.s.readField(name)
}

// GetField is Read without the error. The failure is still passed to the
// handler and reported by Err.
func (b *Bound) GetField(name string) any {
	return b.s.getField(name)
}

// SimpleCall invokes a method and returns what Get would, ending the chain.
func (b *Bound) SimpleCall(name string, args ...any) (any, error) {
	return b.s.simpleCall(name, args)
}

// SimpleSet writes a field and returns the value read back, ending the chain.
func (b *Bound) SimpleSet(name string, value any) (any, error) {
	return b.s.simpleSet(name, value)
}

// AsInterface returns a proxy forwarding the methods of the interface type
// iface to the methods of the same name on the instance. When a handler
// absorbed a failure the proxy is nil; its methods then return
// proxy.ErrUnknownMethod.
func (b *Bound) AsInterface(iface reflect.Type) (*proxy.Proxy, error) {
	out, err := b.s.terminal("as_interface", fmt.Sprint(iface), func(trace.Span) (any, error) {
		if !b.s.bound() {
			return nil, fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
		}
		return proxy.New(iface, b.s.forward)
	})

	p, _ := out.(*proxy.Proxy)
	if p == nil {
		return nil, err
	}

	return p, nil
}

// Use hands the instance out through target. A pointer to an interface
// variable receives the instance itself, which must implement the
// interface. A pointer to a struct of func fields gets every exported field
// bound to the method of the same name.
func (b *Bound) Use(target any) error {
	_, err := b.s.terminal("use", fmt.Sprintf("%T", target), func(trace.Span) (any, error) {
		if !b.s.bound() {
			return nil, fmt.Errorf("%w: %s", ErrChainState, msgCreateFirst)
		}

		tv := reflect.ValueOf(target)
		if tv.Kind() != reflect.Pointer || tv.IsNil() {
			return nil, fmt.Errorf("%w: %T is not a non-nil pointer", ErrUseTarget, target)
		}

		et := tv.Elem().Type()
		switch et.Kind() {
		case reflect.Interface:
			it := b.s.instance.Type()
			if !it.Implements(et) {
				return nil, fmt.Errorf("%w: %s does not implement %s, use a struct of funcs", ErrUseTarget, it, et)
			}
			tv.Elem().Set(b.s.instance)
			return nil, nil

		case reflect.Struct:
			p, err := proxy.FromFuncs(et, b.s.forward)
			if err != nil {
				return nil, err
			}
			return nil, p.Bind(target)

		default:
			return nil, fmt.Errorf("%w: %T", ErrUseTarget, target)
		}
	})

	return err
}
