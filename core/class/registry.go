package class

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// ErrClassNotFound is returned when a name does not resolve to a registered class.
var ErrClassNotFound = errors.New("class not found")

var builtinTypes = []reflect.Type{
	reflect.TypeOf(false),
	reflect.TypeOf(""),
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
	reflect.TypeOf(complex64(0)),
	reflect.TypeOf(complex128(0)),
}

// Registry resolves classes by type and by name. Types that were never
// registered are described on demand with their exported members only.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Class
	byName map[string]*Class
}

// NewRegistry returns a registry holding the builtin classes of Go's basic
// types, each with an identity constructor.
func NewRegistry() *Registry {
	r := &Registry{
		byType: make(map[reflect.Type]*Class),
		byName: make(map[string]*Class),
	}

	for _, t := range builtinTypes {
		c := newClass(r, t)
		c.ctors = append(c.ctors, identityConstructor(c))
		r.byType[t] = c
		r.byName[c.name] = c
	}

	return r
}

// Register describes t with the given options and makes it resolvable by
// its qualified name. A pointer type registers its element type. Registering
// a type again replaces its previous description.
func (r *Registry) Register(t reflect.Type, opts ...Option) (*Class, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrClassNotFound)
	}
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	c := newClass(r, t)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byType[t] = c
	r.byName[c.name] = c

	return c, nil
}

// Describe returns the class of t, creating an unregistered description
// when t is unknown. Described classes are not resolvable by name.
func (r *Registry) Describe(t reflect.Type) *Class {
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	r.mu.RLock()
	c, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok = r.byType[t]; ok {
		return c
	}
	c = newClass(r, t)
	r.byType[t] = c

	return c
}

// Lookup resolves a class by qualified name ("import/path.Name"), by alias,
// or by the short "pkg.Name" form when that form is unambiguous.
func (r *Registry) Lookup(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byName[name]; ok {
		return c, nil
	}

	var found []*Class
	for qualified, c := range r.byName {
		if strings.HasSuffix(qualified, "/"+name) {
			found = append(found, c)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	case 1:
		return found[0], nil
	default:
		names := make([]string, 0, len(found))
		for _, c := range found {
			names = append(names, c.name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s is ambiguous: %s", ErrClassNotFound, name, strings.Join(names, ", "))
	}
}

// Names returns the sorted names of all resolvable classes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (r *Registry) alias(name string, c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[name] = c
}

func identityConstructor(c *Class) *Member {
	ft := reflect.FuncOf([]reflect.Type{c.typ}, []reflect.Type{c.typ}, false)

	return &Member{
		Name:     c.typ.Name(),
		Kind:     KindConstructor,
		Exported: true,
		Owner:    c,
		Params:   []reflect.Type{c.typ},
		fn: reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
			return in
		}),
	}
}
