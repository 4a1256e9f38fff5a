package class

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/anoideaopen/mirror/core/reflectx"
)

// Error types.
var (
	ErrNoSuchConstructor = errors.New("no such constructor")
	ErrNoSuchMethod      = errors.New("no such method")
	ErrNoSuchField       = errors.New("no such field")
	ErrAmbiguousMember   = errors.New("ambiguous member")
)

// Match is the result of resolving a member against an argument vector.
type Match struct {
	Member *Member
	// Path is the embedding path from the searched class to the owner of
	// the member, as struct field indexes.
	Path []int
	// Args are the arguments converted to the declared parameter types.
	Args []reflect.Value
	// Spread is set when the last argument is the variadic slice itself.
	Spread bool
	// Grant is what the escalator allowed for this use of the member.
	Grant Grant

	wildcards int
	exact     int
}

// level is one class visited by the ancestor walk.
type level struct {
	cls  *Class
	path []int
}

// levels walks c and its embedded ancestors breadth first. Nearer classes
// come first, which is what makes the closest declaration win.
func (c *Class) levels() []level {
	var (
		out     = []level{{cls: c}}
		visited = map[*Class]bool{c: true}
	)

	for i := 0; i < len(out); i++ {
		cur := out[i]
		cur.cls.init()

		for _, a := range cur.cls.ancestors {
			ac := cur.cls.reg.Describe(a.typ)
			if visited[ac] {
				continue
			}
			visited[ac] = true

			path := make([]int, len(cur.path)+1)
			copy(path, cur.path)
			path[len(cur.path)] = a.index
			out = append(out, level{cls: ac, path: path})
		}
	}

	return out
}

// PathTo returns the embedding path from c to the class of type t.
func (c *Class) PathTo(t reflect.Type) ([]int, bool) {
	for _, l := range c.levels() {
		if l.cls.typ == t {
			return l.path, true
		}
	}
	return nil, false
}

// FindConstructor resolves the constructor of c best matching args.
// Constructors are not inherited from embedded classes.
func FindConstructor(c *Class, args []any) (*Match, error) {
	best, err := pick(c.constructors(), args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, signature(c.Name(), args))
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchConstructor, signature(c.Name(), args))
	}

	return best, nil
}

// FindConstructorWithTypes resolves the constructor of c whose parameter
// types are exactly types.
func FindConstructorWithTypes(c *Class, types []reflect.Type, args []any) (*Match, error) {
	for _, m := range c.constructors() {
		if match, ok := matchTypes(m, types, args); ok {
			return match, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSuchConstructor, typeSignature(c.Name(), types))
}

// FindMethod resolves the method name of c best matching args. With
// instance set, instance and static methods are candidates; without it only
// static methods are.
func FindMethod(c *Class, name string, args []any, instance bool) (*Match, error) {
	for _, l := range c.levels() {
		best, err := pick(l.cls.methodCandidates(name, instance), args)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, signature(l.cls.Name()+"."+name, args))
		}
		if best != nil {
			best.Path = l.path
			return best, nil
		}
	}

	return nil, c.missingMethod(name, instance, signature(c.Name()+"."+name, args))
}

// FindMethodWithTypes resolves the method name of c whose parameter types
// are exactly types.
func FindMethodWithTypes(c *Class, name string, types []reflect.Type, args []any, instance bool) (*Match, error) {
	for _, l := range c.levels() {
		for _, m := range l.cls.methodCandidates(name, instance) {
			if match, ok := matchTypes(m, types, args); ok {
				match.Path = l.path
				return match, nil
			}
		}
	}

	return nil, c.missingMethod(name, instance, typeSignature(c.Name()+"."+name, types))
}

// FindMethodText resolves the first method name of c, in walk order, whose
// parameters can all be decoded from the textual args.
func FindMethodText(c *Class, name string, args []string, instance bool) (*Match, error) {
	var lastErr error

	for _, l := range c.levels() {
		for _, m := range l.cls.methodCandidates(name, instance) {
			if m.Variadic || len(m.Params) != len(args) {
				continue
			}

			in := make([]reflect.Value, len(args))
			ok := true
			for i, arg := range args {
				v, err := reflectx.ParseValue(arg, m.Params[i])
				if err != nil {
					lastErr = fmt.Errorf("%w: %s, argument %d", err, m, i)
					ok = false
					break
				}
				in[i] = v
			}
			if ok {
				return &Match{Member: m, Path: l.path, Args: in}, nil
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}

	sig := c.Name() + "." + name + "(" + strings.Repeat("text, ", len(args))
	sig = strings.TrimSuffix(sig, ", ") + ")"

	return nil, c.missingMethod(name, instance, sig)
}

// FindField resolves the field name in c or its embedded ancestors. Without
// an instance only static fields are candidates.
func FindField(c *Class, name string, instance bool) (*Match, error) {
	for _, l := range c.levels() {
		if instance {
			if f, ok := l.cls.fields[name]; ok {
				return &Match{Member: f, Path: l.path}, nil
			}
		}
		for _, f := range l.cls.staticFields {
			if f.Name == name {
				return &Match{Member: f, Path: l.path}, nil
			}
		}
	}

	if !instance {
		for _, l := range c.levels() {
			if _, ok := l.cls.fields[name]; ok {
				return nil, fmt.Errorf("%w: %s.%s is an instance field, call create() first", ErrNoSuchField, c.Name(), name)
			}
		}
	}

	return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchField, c.Name(), name)
}

func (c *Class) methodCandidates(name string, instance bool) []*Member {
	c.init()

	var out []*Member
	if instance {
		for _, m := range c.methods {
			if m.Name == name {
				out = append(out, m)
			}
		}
		if m, ok := c.exported[name]; ok {
			out = append(out, m)
		}
	}
	for _, m := range c.staticFuncs {
		if m.Name == name {
			out = append(out, m)
		}
	}

	return out
}

func (c *Class) missingMethod(name string, instance bool, sig string) error {
	if !instance {
		for _, l := range c.levels() {
			if len(l.cls.methodCandidates(name, true)) > 0 {
				return fmt.Errorf("%w: %s is an instance method, call create() first", ErrNoSuchMethod, sig)
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrNoSuchMethod, sig)
}

// pick returns the most specific eligible candidate, nil when none is
// eligible, or ErrAmbiguousMember when two candidates are equally specific.
func pick(candidates []*Member, args []any) (*Match, error) {
	var (
		best *Match
		tied bool
	)

	for _, m := range candidates {
		match, ok := matchArgs(m, args)
		if !ok {
			continue
		}

		switch {
		case best == nil || match.better(best):
			best, tied = match, false
		case !best.better(match):
			tied = true
		}
	}

	if tied {
		return nil, ErrAmbiguousMember
	}

	return best, nil
}

func (m *Match) better(other *Match) bool {
	if m.wildcards != other.wildcards {
		return m.wildcards < other.wildcards
	}
	return m.exact > other.exact
}

// matchArgs checks arity and assignability of every argument.
func matchArgs(m *Member, args []any) (*Match, bool) {
	n := len(m.Params)
	if m.Variadic {
		if len(args) < n-1 {
			return nil, false
		}
	} else if len(args) != n {
		return nil, false
	}

	match := &Match{Member: m, Args: make([]reflect.Value, len(args))}
	for i, arg := range args {
		declared := paramType(m, i)

		conv := reflectx.Assignable(declared, reflectx.TypeOfArg(arg))
		if conv == reflectx.Incompatible {
			return nil, false
		}

		v, err := reflectx.Coerce(declared, arg, conv)
		if err != nil {
			return nil, false
		}
		match.Args[i] = v

		switch conv {
		case reflectx.Exact:
			match.exact++
		case reflectx.Wildcard:
			match.wildcards++
		}
	}

	return match, true
}

// matchTypes checks the declared parameter types for equality with types
// and converts args accordingly. An untyped nil becomes the zero value.
func matchTypes(m *Member, types []reflect.Type, args []any) (*Match, bool) {
	if !sameTypes(m.Params, types) || len(args) != len(types) {
		return nil, false
	}

	match := &Match{Member: m, Args: make([]reflect.Value, len(args)), Spread: m.Variadic}
	for i, arg := range args {
		if arg == nil {
			match.Args[i] = reflect.Zero(types[i])
			continue
		}

		conv := reflectx.Assignable(types[i], reflectx.TypeOfArg(arg))
		v, err := reflectx.Coerce(types[i], arg, conv)
		if err != nil {
			return nil, false
		}
		match.Args[i] = v
	}

	return match, true
}

func paramType(m *Member, i int) reflect.Type {
	n := len(m.Params)
	if m.Variadic && i >= n-1 {
		return m.Params[n-1].Elem()
	}
	return m.Params[i]
}

func signature(name string, args []any) string {
	return name + "(" + strings.Join(reflectx.TypeNames(args), ", ") + ")"
}

func typeSignature(name string, types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return name + "(" + strings.Join(names, ", ") + ")"
}
