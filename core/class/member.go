package class

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind enumerates the member kinds of a class.
type Kind int

const (
	KindUnknown Kind = iota
	KindConstructor
	KindMethod
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindUnknown:
		fallthrough
	default:
		return "unknown"
	}
}

// Grant is the outcome of an accessibility escalation of a member. It
// belongs to the Match it was computed for; the zero Grant allows nothing.
type Grant struct {
	Escalated bool  // set by the escalator
	Visible   bool  // unexported members may be used
	Writable  bool  // the read-only guard is lifted
	Denied    error // the reason when Visible is false
}

// Member is a uniform descriptor of a constructor, method or field.
//
// Constructors and static methods are plain funcs. Instance methods are
// funcs whose first parameter is the receiver, which is what both method
// expressions and reflect.Method.Func look like. Instance fields are struct
// fields of the owner type; static fields are pointers to package variables.
type Member struct {
	Name     string
	Kind     Kind
	Static   bool
	Exported bool
	ReadOnly bool
	Owner    *Class
	Params   []reflect.Type
	Variadic bool

	fn     reflect.Value
	recv   reflect.Type
	field  reflect.StructField
	static reflect.Value
}

// Func returns the underlying func of a constructor or method.
func (m *Member) Func() reflect.Value {
	return m.fn
}

// Receiver returns the receiver type of an instance method, nil otherwise.
func (m *Member) Receiver() reflect.Type {
	return m.recv
}

// StructField returns the struct field of an instance field member.
func (m *Member) StructField() reflect.StructField {
	return m.field
}

// StaticPointer returns the pointer to the variable of a static field.
func (m *Member) StaticPointer() reflect.Value {
	return m.static
}

// Type returns the value type of a field, or the func type of a constructor or method.
func (m *Member) Type() reflect.Type {
	switch {
	case m.Kind != KindField:
		return m.fn.Type()
	case m.Static:
		return m.static.Type().Elem()
	default:
		return m.field.Type
	}
}

func (m *Member) String() string {
	var b strings.Builder

	if m.Static {
		b.WriteString("static ")
	}
	b.WriteString(m.Kind.String())
	b.WriteByte(' ')
	if m.Owner != nil && m.Kind != KindConstructor {
		b.WriteString(m.Owner.Name())
		b.WriteByte('.')
	}
	b.WriteString(m.Name)

	if m.Kind == KindField {
		fmt.Fprintf(&b, " %s", m.Type())
		return b.String()
	}

	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if m.Variadic && i == len(m.Params)-1 {
			b.WriteString("..." + p.Elem().String())
			continue
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')

	return b.String()
}
