// Package proxy forwards calls of a declared method set to a call-by-name
// function.
//
// Go cannot implement an interface at run time, so a Proxy is a dispatch
// table: it maps every method of an interface, or every func field of a
// struct, to its signature, and forwards calls by name. A struct of func
// fields can be bound to a Proxy, which gives typed call sites:
//
//	type Greeter struct {
//		Greet func(name string) (string, error)
//	}
//
//	var g Greeter
//	if err := p.Bind(&g); err != nil { ... }
//	msg, err := g.Greet("Tom")
package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/reflectx"
	"github.com/anoideaopen/mirror/core/stringsx"
)

// Error types.
var (
	ErrNotInterface   = errors.New("not an interface type")
	ErrNotFuncStruct  = errors.New("not a struct of func fields")
	ErrUnknownMethod  = errors.New("unknown proxy method")
	ErrSignature      = errors.New("signature mismatch")
	ErrBindTarget     = errors.New("invalid bind target")
	ErrIncorrectCount = errors.New("incorrect number of arguments")
)

// Forwarder performs the call a proxy method stands for.
type Forwarder func(name string, args []any) (any, error)

// Proxy is a dispatch table from method name to signature.
type Proxy struct {
	typ     reflect.Type
	methods map[string]reflect.Type
	forward Forwarder
}

// New builds a proxy for the methods of the interface type iface.
func New(iface reflect.Type, forward Forwarder) (*Proxy, error) {
	if iface == nil || iface.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %v", ErrNotInterface, iface)
	}

	p := &Proxy{typ: iface, methods: make(map[string]reflect.Type, iface.NumMethod()), forward: forward}
	for i := 0; i < iface.NumMethod(); i++ {
		m := iface.Method(i)
		p.methods[m.Name] = m.Type
	}

	return p, nil
}

// FromFuncs builds a proxy whose methods are the exported func fields of
// the struct type t.
func FromFuncs(t reflect.Type, forward Forwarder) (*Proxy, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotFuncStruct, t)
	}

	p := &Proxy{typ: t, methods: make(map[string]reflect.Type), forward: forward}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		p.methods[f.Name] = f.Type
	}
	if len(p.methods) == 0 {
		return nil, fmt.Errorf("%w: %s has no exported func fields", ErrNotFuncStruct, t)
	}

	return p, nil
}

// Type returns the interface or struct type the proxy was built from.
func (p *Proxy) Type() reflect.Type {
	if p == nil {
		return nil
	}
	return p.typ
}

// Methods returns the sorted method names of the proxy.
func (p *Proxy) Methods() []string {
	if p == nil {
		return nil
	}

	names := make([]string, 0, len(p.methods))
	for name := range p.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Invoke forwards the call of method name and coerces the result to the
// declared result types: nothing, the single value, or a []any.
//
// When the target has no method under the declared name, the call is
// retried under the unexported spelling of the name.
func (p *Proxy) Invoke(name string, args ...any) (any, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: %s on a nil proxy", ErrUnknownMethod, name)
	}

	ft, ok := p.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, p.typ, name)
	}
	if err := checkCount(ft, len(args)); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", p.typ, name, err)
	}

	v, err := p.forward(name, args)
	if lower := stringsx.LowerFirstChar(name); err != nil && errors.Is(err, class.ErrNoSuchMethod) && lower != name {
		v, err = p.forward(lower, args)
	}
	if err != nil {
		return nil, err
	}

	out, err := coerce(ft, v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", p.typ, name, err)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		values := make([]any, len(out))
		for i, o := range out {
			values[i] = o.Interface()
		}
		return values, nil
	}
}

// Bind fills the exported func fields of the struct target points to with
// closures forwarding to Invoke. Every field must name a method of the
// proxy with the identical signature.
//
// A failed call is returned through a trailing error result. Funcs without
// one panic with the error.
func (p *Proxy) Bind(target any) error {
	if p == nil {
		return fmt.Errorf("%w: nil proxy", ErrBindTarget)
	}

	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Pointer || tv.IsNil() || tv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a pointer to a struct", ErrBindTarget, target)
	}

	sv := tv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}

		ft, ok := p.methods[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, p.typ, f.Name)
		}
		if ft != f.Type {
			return fmt.Errorf("%w: %s.%s is %s, field is %s", ErrSignature, p.typ, f.Name, ft, f.Type)
		}

		sv.Field(i).Set(p.makeFunc(f.Name, ft))
	}

	return nil
}

func (p *Proxy) makeFunc(name string, ft reflect.Type) reflect.Value {
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, 0, len(in))
		for i, v := range in {
			if ft.IsVariadic() && i == len(in)-1 {
				for j := 0; j < v.Len(); j++ {
					args = append(args, v.Index(j).Interface())
				}
				continue
			}
			args = append(args, v.Interface())
		}

		v, err := p.Invoke(name, args...)
		if err != nil {
			return failure(ft, err)
		}

		out, err := coerce(ft, v)
		if err != nil {
			return failure(ft, err)
		}
		if reflectx.ReturnsError(ft) {
			out = append(out, reflect.Zero(reflectx.ErrorType()))
		}

		return out
	})
}

// coerce converts the forwarded value into the results of ft, a trailing
// error result excluded.
func coerce(ft reflect.Type, v any) ([]reflect.Value, error) {
	n := ft.NumOut()
	if reflectx.ReturnsError(ft) {
		n--
	}

	switch n {
	case 0:
		return nil, nil
	case 1:
		out, err := reflectx.CoerceResult(ft.Out(0), v)
		if err != nil {
			return nil, err
		}
		return []reflect.Value{out}, nil
	}

	values, ok := v.([]any)
	if !ok || len(values) != n {
		return nil, fmt.Errorf("%w: expected %d results, got %s", ErrSignature, n, reflectx.TypeNames([]any{v})[0])
	}

	out := make([]reflect.Value, n)
	for i := range out {
		o, err := reflectx.CoerceResult(ft.Out(i), values[i])
		if err != nil {
			return nil, err
		}
		out[i] = o
	}

	return out, nil
}

func failure(ft reflect.Type, err error) []reflect.Value {
	if !reflectx.ReturnsError(ft) {
		panic(err)
	}

	out := make([]reflect.Value, ft.NumOut())
	for i := range out {
		out[i] = reflect.Zero(ft.Out(i))
	}
	out[len(out)-1] = reflect.ValueOf(&err).Elem()

	return out
}

func checkCount(ft reflect.Type, n int) error {
	if ft.IsVariadic() {
		if n < ft.NumIn()-1 {
			return fmt.Errorf("%w: found %d but expected at least %d", ErrIncorrectCount, n, ft.NumIn()-1)
		}
		return nil
	}
	if n != ft.NumIn() {
		return fmt.Errorf("%w: found %d but expected %d", ErrIncorrectCount, n, ft.NumIn())
	}
	return nil
}
