package reflectx

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNilBox is returned when a nil pointer is passed where its primitive element is expected.
var ErrNilBox = errors.New("nil pointer for primitive parameter")

// Conversion describes how a runtime argument satisfies a declared parameter type.
// The order of the constants is the order of decreasing specificity.
type Conversion int

const (
	Incompatible Conversion = iota
	Exact
	Boxed
	Subtype
	Wildcard
)

func (c Conversion) String() string {
	switch c {
	case Exact:
		return "exact"
	case Boxed:
		return "boxed"
	case Subtype:
		return "subtype"
	case Wildcard:
		return "wildcard"
	case Incompatible:
		fallthrough
	default:
		return "incompatible"
	}
}

// IsPrimitive reports whether t is one of Go's basic value kinds that have
// a pointer "box" counterpart: booleans, integers, floats and complex numbers.
func IsPrimitive(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

// IsNillable reports whether the zero value of t is nil.
func IsNillable(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// TypeOfArg returns the runtime type of an argument, nil for an untyped nil.
func TypeOfArg(arg any) reflect.Type {
	return reflect.TypeOf(arg)
}

// Assignable decides whether an argument of runtime type argType may be passed
// to a parameter declared as declared. A nil argType stands for an untyped nil.
//
// Rules, in order:
//  1. identical types are an Exact match;
//  2. a primitive T and its box *T are interchangeable (Boxed);
//  3. a type assignable to the declared one, e.g. an implementation of a
//     declared interface, is a Subtype match;
//  4. an untyped nil matches any nillable declared type (Wildcard);
//  5. everything else is Incompatible. Numeric types are never widened.
func Assignable(declared, argType reflect.Type) Conversion {
	if declared == nil {
		return Incompatible
	}

	if argType == nil {
		if IsNillable(declared) {
			return Wildcard
		}
		return Incompatible
	}

	if argType == declared {
		return Exact
	}

	if IsPrimitive(declared) && argType.Kind() == reflect.Pointer && argType.Elem() == declared {
		return Boxed
	}
	if declared.Kind() == reflect.Pointer && IsPrimitive(declared.Elem()) && argType == declared.Elem() {
		return Boxed
	}

	if argType.AssignableTo(declared) {
		return Subtype
	}

	return Incompatible
}

// Coerce turns arg into a value that can be passed as a parameter of the
// declared type, following the conversion previously chosen by Assignable.
func Coerce(declared reflect.Type, arg any, conv Conversion) (reflect.Value, error) {
	switch conv {
	case Exact:
		return reflect.ValueOf(arg), nil

	case Subtype:
		out := reflect.New(declared).Elem()
		out.Set(reflect.ValueOf(arg))
		return out, nil

	case Wildcard:
		return reflect.Zero(declared), nil

	case Boxed:
		v := reflect.ValueOf(arg)
		if declared.Kind() == reflect.Pointer {
			box := reflect.New(declared.Elem())
			box.Elem().Set(v)
			return box, nil
		}
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilBox, declared)
		}
		return v.Elem(), nil

	case Incompatible:
		fallthrough
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s for type '%s'", ErrInvalidArgumentValue, describe(arg), declared)
	}
}

// CoerceResult converts a value produced by a reflective call into the
// declared type, as needed when a result is handed back through a typed
// signature. Besides the Assignable rules it also permits Go conversions
// between convertible types; a nil value becomes the zero value.
func CoerceResult(declared reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(declared), nil
	}

	if conv := Assignable(declared, reflect.TypeOf(v)); conv != Incompatible {
		return Coerce(declared, v, conv)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().ConvertibleTo(declared) {
		return rv.Convert(declared), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s for type '%s'", ErrInvalidArgumentValue, describe(v), declared)
}

// TypeNames renders the runtime types of args for diagnostics.
func TypeNames(args []any) []string {
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = describe(arg)
	}
	return names
}

func describe(arg any) string {
	if arg == nil {
		return "nil"
	}
	return reflect.TypeOf(arg).String()
}
