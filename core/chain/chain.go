// Package chain carries a current class, instance and result across a
// sequence of reflective steps.
//
// A chain opened on a class is a *Chain: only static members are reachable
// until Create or With binds an instance, which yields a *Bound. A chain
// opened on an instance starts as a *Bound.
//
//	name, err := engine.Open("TestClass").
//		Create("Tom", 12).
//		Call("setName", "Ann").
//		Read("name")
//
// The first failure of a step is kept and every later step is skipped.
// Terminal operations return it, unless a handler was registered with
// OnError, in which case failures go to the handler and terminal operations
// return nil. A chain ends with its first terminal operation; anything
// after it fails with ErrChainTerminated.
package chain

import (
	"reflect"

	"github.com/anoideaopen/mirror/core/class"
)

// Chain is a chain without an instance.
type Chain struct {
	s *state
}

// Create resolves the constructor best matching args and binds the new
// instance.
func (c *Chain) Create(args ...any) *Bound {
	c.s.create(args)
	return &Bound{s: c.s}
}

// CreateWithTypes binds a new instance built by the constructor whose
// parameter types are exactly types. Use it when args contain nil.
func (c *Chain) CreateWithTypes(types []reflect.Type, args ...any) *Bound {
	c.s.createWithTypes(types, args)
	return &Bound{s: c.s}
}

// With binds an existing instance whose type is, or embeds, the class of
// the chain.
func (c *Chain) With(instance any) *Bound {
	c.s.with(instance)
	return &Bound{s: c.s}
}

// Call invokes a static method and keeps its result.
func (c *Chain) Call(name string, args ...any) *Chain {
	c.s.call(name, args)
	return c
}

// CallWithTypes invokes the static method whose parameter types are exactly types.
func (c *Chain) CallWithTypes(name string, types []reflect.Type, args ...any) *Chain {
	c.s.callWithTypes(name, types, args)
	return c
}

// CallText invokes the static method whose parameters decode from args.
func (c *Chain) CallText(name string, args ...string) *Chain {
	c.s.callText(name, args)
	return c
}

// Set writes a static field.
func (c *Chain) Set(name string, value any) *Chain {
	c.s.set(name, value)
	return c
}

// OnError registers h. A failure that already happened is passed to h at once.
func (c *Chain) OnError(h Handler) *Chain {
	c.s.onError(h)
	return c
}

// Class returns the class of the chain, nil when it did not resolve.
func (c *Chain) Class() *class.Class {
	return c.s.cls
}

// Err returns the first failure of the chain.
func (c *Chain) Err() error {
	return c.s.failed
}

// Get returns the result of the last static call. Without one it fails
// with ErrChainState.
func (c *Chain) Get() (any, error) {
	return c.s.get()
}

// GetResult returns the result of the last static call, nil without one.
func (c *Chain) GetResult() (any, error) {
	return c.s.getResult()
}

// GetInstance fails with ErrChainState: the chain has no instance.
func (c *Chain) GetInstance() (any, error) {
	return c.s.getInstance()
}

// Read returns the value of a static field.
func (c *Chain) Read(name string) (any, error) {
	return c.s.readField(name)
}

// GetField is Read without the error. The failure is still passed to the
// handler and reported by Err.
func (c *Chain) GetField(name string) any {
	return c.s.getField(name)
}

// SimpleCall invokes a static method and returns its result, ending the chain.
func (c *Chain) SimpleCall(name string, args ...any) (any, error) {
	return c.s.simpleCall(name, args)
}

// SimpleSet writes a static field and returns the value read back, ending
// the chain.
func (c *Chain) SimpleSet(name string, value any) (any, error) {
	return c.s.simpleSet(name, value)
}
