package invoke

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/anoideaopen/mirror/core/access"
	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/reflectx"
)

// Error types.
var (
	ErrInvocationFailed       = errors.New("invocation failed")
	ErrIncorrectArgumentCount = errors.New("incorrect number of arguments")
	ErrReceiverMismatch       = errors.New("receiver type mismatch")
	ErrNilReceiver            = errors.New("nil receiver")
	ErrPanic                  = errors.New("panic")
)

// Error wraps every failure of a resolved member at call time. It matches
// ErrInvocationFailed and unwraps to the original cause.
type Error struct {
	Member *class.Member
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrInvocationFailed, e.Member, e.Cause)
}

// Is matches ErrInvocationFailed.
func (e *Error) Is(target error) bool {
	return target == ErrInvocationFailed
}

// Unwrap returns the original cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func fail(m *class.Member, cause error) error {
	return &Error{Member: m, Cause: cause}
}

// Result is the outcome of a call. Values holds the results without a
// trailing error; Void is set when the member declares no such results.
type Result struct {
	Values []reflect.Value
	Void   bool
}

// Value folds the results into one value: nothing, the single result, or a
// []any of all of them.
func (r Result) Value() any {
	switch len(r.Values) {
	case 0:
		return nil
	case 1:
		return r.Values[0].Interface()
	default:
		out := make([]any, len(r.Values))
		for i, v := range r.Values {
			out[i] = v.Interface()
		}
		return out
	}
}

// Construct instantiates the class of match through the resolved constructor.
// The instance is returned as *T for struct classes and as T otherwise.
func Construct(match *class.Match) (reflect.Value, error) {
	m := match.Member
	if err := access.CheckUse(m, match.Grant); err != nil {
		return reflect.Value{}, err
	}

	res, err := call(m, m.Func(), match.Args, match.Spread)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(res.Values) != 1 {
		return reflect.Value{}, fail(m, fmt.Errorf("constructor returned %d values", len(res.Values)))
	}

	return Normalize(m.Owner, res.Values[0]), nil
}

// Normalize turns a value of the class into the form chains hold: struct
// values are copied into a fresh pointer.
func Normalize(c *class.Class, v reflect.Value) reflect.Value {
	if c.IsStruct() && v.Kind() == reflect.Struct {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p
	}
	return v
}

// Invoke calls the resolved method. recv is ignored for static methods and
// is the instance the search started from otherwise; the match path leads
// from it to the owner of the method.
func Invoke(match *class.Match, recv reflect.Value) (Result, error) {
	m := match.Member
	if err := access.CheckUse(m, match.Grant); err != nil {
		return Result{}, err
	}

	if m.Static {
		return call(m, m.Func(), match.Args, match.Spread)
	}

	owner, err := Descend(recv, match.Path)
	if err != nil {
		return Result{}, fail(m, err)
	}

	r, err := receiver(owner, m.Receiver())
	if err != nil {
		return Result{}, fail(m, err)
	}

	in := make([]reflect.Value, 0, len(match.Args)+1)
	in = append(in, r)
	in = append(in, match.Args...)

	return call(m, m.Func(), in, match.Spread)
}

// ReadField returns the value of the resolved field.
func ReadField(match *class.Match, recv reflect.Value) (reflect.Value, error) {
	m := match.Member
	if err := access.CheckUse(m, match.Grant); err != nil {
		return reflect.Value{}, err
	}

	f, err := field(match, recv)
	if err != nil {
		return reflect.Value{}, fail(m, err)
	}

	return f, nil
}

// WriteField assigns value to the resolved field. Read-only fields are
// written when escalation lifted the guard.
func WriteField(match *class.Match, recv reflect.Value, value any) error {
	m := match.Member
	if err := access.CheckWrite(m, match.Grant); err != nil {
		return err
	}

	f, err := field(match, recv)
	if err != nil {
		return fail(m, err)
	}

	conv := reflectx.Assignable(f.Type(), reflectx.TypeOfArg(value))
	v, err := reflectx.Coerce(f.Type(), value, conv)
	if err != nil {
		return fail(m, err)
	}

	f.Set(v)

	return nil
}

// Descend follows an embedding path from v, dereferencing pointers on the way.
func Descend(v reflect.Value, path []int) (reflect.Value, error) {
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilReceiver, v.Type())
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}

	return v, nil
}

// field returns a settable view of the matched field, unexported or not.
func field(match *class.Match, recv reflect.Value) (reflect.Value, error) {
	m := match.Member
	if m.Static {
		return m.StaticPointer().Elem(), nil
	}

	owner, err := Descend(recv, match.Path)
	if err != nil {
		return reflect.Value{}, err
	}
	if owner.Kind() == reflect.Pointer {
		if owner.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilReceiver, owner.Type())
		}
		owner = owner.Elem()
	}
	if owner.Type() != m.Owner.Type() {
		return reflect.Value{}, fmt.Errorf("%w: %s is not %s", ErrReceiverMismatch, owner.Type(), m.Owner.Type())
	}

	f := owner.Field(m.StructField().Index[0])
	if !f.CanAddr() {
		return reflect.Value{}, fmt.Errorf("%w: %s is not addressable", ErrReceiverMismatch, owner.Type())
	}

	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem(), nil
}

// receiver adapts v to the receiver type the method func expects.
func receiver(v reflect.Value, want reflect.Type) (reflect.Value, error) {
	switch {
	case v.Type() == want:
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilReceiver, want)
		}
		return v, nil

	case v.Kind() == reflect.Pointer && v.Type().Elem() == want:
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilReceiver, v.Type())
		}
		return v.Elem(), nil

	case want.Kind() == reflect.Pointer && want.Elem() == v.Type():
		if v.CanAddr() {
			return v.Addr(), nil
		}
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: %s for %s", ErrReceiverMismatch, v.Type(), want)
	}
}

// call runs fn, turning panics and a non-nil trailing error into *Error.
func call(m *class.Member, fn reflect.Value, in []reflect.Value, spread bool) (res Result, err error) {
	ft := fn.Type()
	if !ft.IsVariadic() && len(in) != ft.NumIn() {
		return Result{}, fail(m, fmt.Errorf(
			"%w: found %d but expected %d",
			ErrIncorrectArgumentCount,
			len(in),
			ft.NumIn(),
		))
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fail(m, fmt.Errorf("%w: %w", ErrPanic, e))
				return
			}
			err = fail(m, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	var out []reflect.Value
	if spread {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	if reflectx.ReturnsError(ft) {
		last := out[len(out)-1]
		if !last.IsNil() {
			return Result{}, fail(m, last.Interface().(error)) //nolint:forcetypeassert
		}
		out = out[:len(out)-1]
	}

	return Result{Values: out, Void: len(out) == 0}, nil
}
