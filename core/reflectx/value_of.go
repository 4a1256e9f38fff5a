package reflectx

import (
	"encoding"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ErrInvalidArgumentValue is returned when an argument cannot be turned into a parameter value.
var ErrInvalidArgumentValue = errors.New("invalid argument value")

// textDecoder tries to decode raw into target, a pointer to a fresh value of
// the parameter type. ok is false when the decoder does not apply.
type textDecoder func(raw []byte, target any) (ok bool, err error)

// textDecoders are tried in order; the first applicable decoder decides.
var textDecoders = []textDecoder{
	decodeJSON,
	decodeText,
	decodeProtoWire,
	decodeBinary,
	decodeGob,
}

// ParseValue converts the textual form of an argument into a reflect.Value
// of type t. Strings and *string are taken verbatim. Otherwise the text is
// decoded as JSON (protojson for proto messages) when it is valid JSON, then
// through encoding.TextUnmarshaler, proto wire format,
// encoding.BinaryUnmarshaler and gob.GobDecoder, whichever the type
// implements first.
func ParseValue(s string, t reflect.Type) (reflect.Value, error) {
	var (
		raw      = []byte(s)
		pointer  = t.Kind() == reflect.Pointer
		target   reflect.Value
		outValue reflect.Value
	)

	if pointer {
		target = reflect.New(t.Elem())
		outValue = target
	} else {
		target = reflect.New(t)
		outValue = target.Elem()
	}

	if target.Elem().Kind() == reflect.String {
		target.Elem().SetString(s)
		return outValue, nil
	}

	var lastErr error
	for _, decode := range textDecoders {
		ok, err := decode(raw, target.Interface())
		if !ok {
			continue
		}
		if err == nil {
			return outValue, nil
		}
		lastErr = err
	}

	return outValue, NewValueError(s, t, lastErr)
}

func decodeJSON(raw []byte, target any) (bool, error) {
	if !json.Valid(raw) {
		return false, nil
	}

	if msg, ok := target.(proto.Message); ok {
		return true, protojson.Unmarshal(raw, msg)
	}

	return true, json.Unmarshal(raw, target)
}

func decodeText(raw []byte, target any) (bool, error) {
	u, ok := target.(encoding.TextUnmarshaler)
	if !ok || !utf8.Valid(raw) {
		return false, nil
	}

	return true, u.UnmarshalText(raw)
}

func decodeProtoWire(raw []byte, target any) (bool, error) {
	msg, ok := target.(proto.Message)
	if !ok {
		return false, nil
	}

	return true, proto.Unmarshal(raw, msg)
}

func decodeBinary(raw []byte, target any) (bool, error) {
	u, ok := target.(encoding.BinaryUnmarshaler)
	if !ok {
		return false, nil
	}

	return true, u.UnmarshalBinary(raw)
}

func decodeGob(raw []byte, target any) (bool, error) {
	d, ok := target.(gob.GobDecoder)
	if !ok {
		return false, nil
	}

	return true, d.GobDecode(raw)
}

// ValueError reports a failed conversion of a textual argument, keeping the
// decoder's own error as the cause.
type ValueError struct {
	cause error
	arg   string
	t     string
}

func (e ValueError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%v: '%s': for type '%s'", ErrInvalidArgumentValue, e.arg, e.t)
	}

	return fmt.Sprintf("%v: '%s': for type '%s': '%v'", ErrInvalidArgumentValue, e.arg, e.t, e.cause)
}

// Is matches ErrInvalidArgumentValue.
func (e ValueError) Is(target error) bool {
	return target == ErrInvalidArgumentValue
}

// Unwrap returns the decoder error, if any.
func (e ValueError) Unwrap() error {
	return e.cause
}

// NewValueError constructs a ValueError for arg and the target type t.
func NewValueError(arg string, t reflect.Type, errOrNil error) error {
	return ValueError{
		cause: errOrNil,
		arg:   arg,
		t:     t.String(),
	}
}
