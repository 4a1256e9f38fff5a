package class

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/anoideaopen/mirror/core/reflectx"
)

// tagKey is the struct tag key read by class descriptors.
// `mirror:"readonly"` marks a field as immutable.
const tagKey = "mirror"

// Error types.
var (
	ErrInvalidConstructor = errors.New("invalid constructor")
	ErrInvalidMethod      = errors.New("invalid method")
	ErrInvalidStaticField = errors.New("invalid static field")
)

// Option configures the metadata of a class at registration.
type Option func(c *Class) error

// Class describes a Go named type together with the members Go reflection
// cannot enumerate by itself: constructors, unexported methods, static
// members and read-only fields.
type Class struct {
	name string
	typ  reflect.Type
	reg  *Registry

	ctors        []*Member
	methods      []*Member
	staticFuncs  []*Member
	staticFields []*Member
	readOnly     map[string]struct{}

	once      sync.Once
	fields    map[string]*Member
	exported  map[string]*Member
	ancestors []ancestor
	zeroCtor  *Member
}

// ancestor is an embedded struct field. Its class is looked up in the
// registry on every walk, so a later registration of the embedded type is
// seen by the embedding class.
type ancestor struct {
	index int
	typ   reflect.Type
}

func newClass(reg *Registry, t reflect.Type) *Class {
	return &Class{
		name:     QualifiedName(t),
		typ:      t,
		reg:      reg,
		readOnly: make(map[string]struct{}),
	}
}

// QualifiedName returns the name a class is registered under:
// "import/path.Name" for named types, the type string otherwise.
func QualifiedName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}

	return t.PkgPath() + "." + t.Name()
}

// TypeOf returns the reflect.Type of T, usable as a class reference.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Name returns the qualified name of the class.
func (c *Class) Name() string {
	return c.name
}

// Type returns the described type.
func (c *Class) Type() reflect.Type {
	return c.typ
}

// IsStruct reports whether instances are held by pointer.
func (c *Class) IsStruct() bool {
	return c.typ.Kind() == reflect.Struct
}

// InstanceType is the type of the instances a chain holds for this class:
// *T for structs, T for every other kind.
func (c *Class) InstanceType() reflect.Type {
	if c.IsStruct() {
		return reflect.PointerTo(c.typ)
	}
	return c.typ
}

// Methods returns the sorted names of the exported method set.
func (c *Class) Methods() []string {
	return reflectx.Methods(reflect.PointerTo(c.typ))
}

// Ancestors returns the classes embedded by this class, in declaration order.
func (c *Class) Ancestors() []*Class {
	c.init()

	out := make([]*Class, 0, len(c.ancestors))
	for _, a := range c.ancestors {
		out = append(out, c.reg.Describe(a.typ))
	}
	return out
}

func (c *Class) isReadOnly(name string) bool {
	_, ok := c.readOnly[name]
	return ok
}

// init lazily builds the tables derived from the type itself.
func (c *Class) init() {
	c.once.Do(func() {
		c.fields = make(map[string]*Member)
		c.exported = make(map[string]*Member)

		if c.IsStruct() {
			for i := 0; i < c.typ.NumField(); i++ {
				f := c.typ.Field(i)
				if f.Name == "_" {
					continue
				}

				c.fields[f.Name] = &Member{
					Name:     f.Name,
					Kind:     KindField,
					Exported: f.IsExported(),
					ReadOnly: c.isReadOnly(f.Name) || f.Tag.Get(tagKey) == "readonly",
					Owner:    c,
					field:    f,
				}

				if !f.Anonymous {
					continue
				}
				et := f.Type
				if et.Kind() == reflect.Pointer {
					et = et.Elem()
				}
				if et.Kind() == reflect.Struct && c.reg != nil {
					c.ancestors = append(c.ancestors, ancestor{index: i, typ: et})
				}
			}
		}

		pt := reflect.PointerTo(c.typ)
		for i := 0; i < pt.NumMethod(); i++ {
			method := pt.Method(i)
			ft := method.Func.Type()
			if c.registered(method.Name, reflectx.Params(ft, 1)) {
				continue
			}

			c.exported[method.Name] = &Member{
				Name:     method.Name,
				Kind:     KindMethod,
				Exported: true,
				Owner:    c,
				Params:   reflectx.Params(ft, 1),
				Variadic: ft.IsVariadic(),
				fn:       method.Func,
				recv:     pt,
			}
		}

		c.zeroCtor = c.defaultConstructor()
	})
}

func (c *Class) registered(name string, params []reflect.Type) bool {
	for _, m := range c.methods {
		if m.Name == name && sameTypes(m.Params, params) {
			return true
		}
	}
	return false
}

// defaultConstructor synthesizes the zero-argument constructor unless one
// has been registered.
func (c *Class) defaultConstructor() *Member {
	for _, ctor := range c.ctors {
		if len(ctor.Params) == 0 {
			return nil
		}
	}

	it := c.InstanceType()
	fn := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{it}, false), func([]reflect.Value) []reflect.Value {
		if c.IsStruct() {
			return []reflect.Value{reflect.New(c.typ)}
		}
		return []reflect.Value{reflect.Zero(c.typ)}
	})

	return &Member{
		Name:     c.typ.Name(),
		Kind:     KindConstructor,
		Exported: true,
		Owner:    c,
		fn:       fn,
	}
}

func (c *Class) constructors() []*Member {
	c.init()

	if c.zeroCtor == nil {
		return c.ctors
	}

	return append([]*Member{c.zeroCtor}, c.ctors...)
}

// WithConstructor registers a constructor func. It must return T, *T,
// optionally followed by an error. Unexported funcs are allowed.
func WithConstructor(fn any) Option {
	return func(c *Class) error {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func {
			return fmt.Errorf("%w: %T is not a func", ErrInvalidConstructor, fn)
		}

		ft := fv.Type()
		out := ft.NumOut()
		if reflectx.ReturnsError(ft) {
			out--
		}
		if out != 1 || (ft.Out(0) != c.typ && ft.Out(0) != reflect.PointerTo(c.typ)) {
			return fmt.Errorf("%w: %s does not return %s", ErrInvalidConstructor, ft, c.typ)
		}

		c.ctors = append(c.ctors, &Member{
			Name:     c.typ.Name(),
			Kind:     KindConstructor,
			Exported: token.IsExported(funcName(fv)),
			Owner:    c,
			Params:   reflectx.Params(ft, 0),
			Variadic: ft.IsVariadic(),
			fn:       fv,
		})

		return nil
	}
}

// WithMethod registers an instance method under name. fn is a method
// expression such as (*T).name, or any func whose first parameter is T or *T.
func WithMethod(name string, fn any) Option {
	return func(c *Class) error {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func {
			return fmt.Errorf("%w: %s: %T is not a func", ErrInvalidMethod, name, fn)
		}

		ft := fv.Type()
		if ft.NumIn() == 0 || (ft.In(0) != c.typ && ft.In(0) != reflect.PointerTo(c.typ)) {
			return fmt.Errorf("%w: %s: first parameter of %s must be %s or *%s", ErrInvalidMethod, name, ft, c.typ, c.typ)
		}

		c.methods = append(c.methods, &Member{
			Name:     name,
			Kind:     KindMethod,
			Exported: token.IsExported(name),
			Owner:    c,
			Params:   reflectx.Params(ft, 1),
			Variadic: ft.IsVariadic(),
			fn:       fv,
			recv:     ft.In(0),
		})

		return nil
	}
}

// WithStaticMethod registers a func as a static method of the class.
func WithStaticMethod(name string, fn any) Option {
	return func(c *Class) error {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func {
			return fmt.Errorf("%w: %s: %T is not a func", ErrInvalidMethod, name, fn)
		}

		ft := fv.Type()
		c.staticFuncs = append(c.staticFuncs, &Member{
			Name:     name,
			Kind:     KindMethod,
			Static:   true,
			Exported: token.IsExported(name),
			Owner:    c,
			Params:   reflectx.Params(ft, 0),
			Variadic: ft.IsVariadic(),
			fn:       fv,
		})

		return nil
	}
}

// WithStaticField registers a package variable, passed by pointer, as a
// static field of the class.
func WithStaticField(name string, ptr any) Option {
	return func(c *Class) error {
		pv := reflect.ValueOf(ptr)
		if pv.Kind() != reflect.Pointer || pv.IsNil() {
			return fmt.Errorf("%w: %s: %T is not a non-nil pointer", ErrInvalidStaticField, name, ptr)
		}

		for _, f := range c.staticFields {
			if f.Name == name {
				return fmt.Errorf("%w: %s: already registered", ErrInvalidStaticField, name)
			}
		}

		c.staticFields = append(c.staticFields, &Member{
			Name:     name,
			Kind:     KindField,
			Static:   true,
			Exported: token.IsExported(name),
			ReadOnly: c.isReadOnly(name),
			Owner:    c,
			static:   pv,
		})

		return nil
	}
}

// WithReadOnly marks fields, instance or static, as immutable. Writes to
// them need an escalation that lifts the read-only guard.
func WithReadOnly(names ...string) Option {
	return func(c *Class) error {
		for _, name := range names {
			c.readOnly[name] = struct{}{}
			for _, f := range c.staticFields {
				if f.Name == name {
					f.ReadOnly = true
				}
			}
		}
		return nil
	}
}

// WithAlias registers an additional lookup name for the class.
func WithAlias(alias string) Option {
	return func(c *Class) error {
		if c.reg == nil {
			return nil
		}
		c.reg.alias(alias, c)
		return nil
	}
}

func funcName(fv reflect.Value) string {
	f := runtime.FuncForPC(fv.Pointer())
	if f == nil {
		return ""
	}

	name := f.Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	return name
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
