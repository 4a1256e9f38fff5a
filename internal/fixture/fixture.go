// Package fixture holds the types the tests of the module operate on.
package fixture

import (
	"errors"
	"fmt"
	"time"

	"github.com/anoideaopen/mirror/core/class"
)

// ErrFixture is returned by TestClass.Fail.
var ErrFixture = errors.New("fixture failure")

var (
	staticString     = "staticString"
	staticFinalField = "finalString"
	counter          = 10
)

// ResetStatics restores the package variables registered as static fields.
func ResetStatics() {
	staticString = "staticString"
	staticFinalField = "finalString"
	counter = 10
}

// StaticString returns the current value of the staticString static field.
func StaticString() string {
	return staticString
}

// SuperTestClass is embedded by TestClass.
type SuperTestClass struct {
	superName string
	level     int
}

// SuperName is promoted into TestClass.
func (s *SuperTestClass) SuperName() string {
	return s.superName
}

// Describe is overridden by TestClass.
func (s *SuperTestClass) Describe() string {
	return "super:" + s.superName
}

func (s *SuperTestClass) whoAmI() string {
	return "super"
}

func (s *SuperTestClass) levelUp(by int) int {
	s.level += by
	return s.level
}

// TestClass has members of every kind and visibility.
type TestClass struct {
	SuperTestClass

	name        string
	age         int
	finalString string `mirror:"readonly"`
	nickname    string
	b           byte
	b2          *byte

	Nickname string
	Code     string `mirror:"readonly"`
}

// NewTestClass is the exported one-argument constructor.
func NewTestClass(name string) *TestClass {
	return &TestClass{
		SuperTestClass: SuperTestClass{superName: name},
		name:           name,
		finalString:    "finalString",
		nickname:       "666",
		Code:           "A1",
	}
}

func newDefaultTestClass() *TestClass {
	t := NewTestClass("default")
	t.superName = ""
	return t
}

func newTestClassWithAge(name string, age int) *TestClass {
	t := NewTestClass(name)
	t.superName = ""
	t.age = age
	return t
}

func newTestClassAged(age int) (TestClass, error) {
	if age < 0 {
		return TestClass{}, fmt.Errorf("negative age %d", age)
	}
	t := newDefaultTestClass()
	t.age = age
	return *t, nil
}

// Name returns the unexported name.
func (t *TestClass) Name() string {
	return t.name
}

// Age returns the unexported age.
func (t *TestClass) Age() int {
	return t.age
}

// Describe overrides SuperTestClass.Describe.
func (t *TestClass) Describe() string {
	return "test:" + t.name
}

// Greet concatenates the greeting and the name.
func (t *TestClass) Greet(greeting string) string {
	return greeting + ", " + t.name
}

// Sleep blocks for d and reports the name.
func (t *TestClass) Sleep(d time.Duration) string {
	time.Sleep(d)
	return "slept " + t.name
}

// Fail always returns ErrFixture.
func (t *TestClass) Fail() error {
	return ErrFixture
}

// Explode panics.
func (t *TestClass) Explode() {
	panic("exploded")
}

func (t *TestClass) whoAmI() string {
	return "test"
}

func (t *TestClass) setName(name string) {
	t.name = name
}

func (t *TestClass) getName() string {
	return t.name
}

func (t *TestClass) setByte(b byte) {
	t.b = b
}

func (t *TestClass) getByte() byte {
	return t.b
}

func (t *TestClass) setData(name string, b byte) {
	t.name = name
	t.b = b
}

func (t *TestClass) setData2(name string, b *byte) {
	t.name = name
	t.b2 = b
}

func (t *TestClass) getB2() *byte {
	return t.b2
}

func (t *TestClass) echoString(s string) string {
	return "string:" + s
}

func (t *TestClass) echoAny(v any) string {
	return fmt.Sprintf("any:%v", v)
}

func (t *TestClass) acceptStringer(s fmt.Stringer) string {
	return "stringer"
}

func (t *TestClass) acceptError(e error) string {
	return "error"
}

func (t *TestClass) sum(base int, more ...int) int {
	for _, m := range more {
		base += m
	}
	return base
}

func version() string {
	return "v1"
}

func count() int {
	return counter
}

func pause(d time.Duration) string {
	time.Sleep(d)
	return "paused"
}

// Both implements fmt.Stringer and error, which makes overloads taking
// either of them equally specific.
type Both struct{}

func (Both) String() string { return "both" }
func (Both) Error() string  { return "both" }

// Named is the interface of the unexported accessors of TestClass, reached
// through a proxy.
type Named interface {
	GetName() string
	SetName(name string)
}

// Describer is implemented by *TestClass.
type Describer interface {
	Describe() string
}

// NamedFuncs is the func struct counterpart of Named.
type NamedFuncs struct {
	GetName func() string
	SetName func(name string)
	Greet   func(greeting string) (string, error)
}

// Text is a string class with methods.
type Text string

// NewText converts s.
func NewText(s string) Text {
	return Text(s)
}

// Substring returns the text from the byte offset begin. It panics when
// begin is out of range.
func (t Text) Substring(begin int) Text {
	return t[begin:]
}

// Len returns the length in bytes.
func (t Text) Len() int {
	return len(t)
}

// TextProxy is the interface a Text proxy is built for.
type TextProxy interface {
	Substring(begin int) Text
	Len() int
}

// SuperOptions are the registration options of SuperTestClass.
func SuperOptions() []class.Option {
	return []class.Option{
		class.WithMethod("whoAmI", (*SuperTestClass).whoAmI),
		class.WithMethod("levelUp", (*SuperTestClass).levelUp),
		class.WithAlias("SuperTestClass"),
	}
}

// TestClassOptions are the registration options of TestClass.
func TestClassOptions() []class.Option {
	return []class.Option{
		class.WithConstructor(newDefaultTestClass),
		class.WithConstructor(NewTestClass),
		class.WithConstructor(newTestClassWithAge),
		class.WithConstructor(newTestClassAged),
		class.WithMethod("whoAmI", (*TestClass).whoAmI),
		class.WithMethod("setName", (*TestClass).setName),
		class.WithMethod("getName", (*TestClass).getName),
		class.WithMethod("setByte", (*TestClass).setByte),
		class.WithMethod("getByte", (*TestClass).getByte),
		class.WithMethod("setData", (*TestClass).setData),
		class.WithMethod("setData2", (*TestClass).setData2),
		class.WithMethod("getB2", (*TestClass).getB2),
		class.WithMethod("echo", (*TestClass).echoString),
		class.WithMethod("echo", (*TestClass).echoAny),
		class.WithMethod("accept", (*TestClass).acceptStringer),
		class.WithMethod("accept", (*TestClass).acceptError),
		class.WithMethod("sum", (*TestClass).sum),
		class.WithStaticField("staticString", &staticString),
		class.WithStaticField("staticFinalField", &staticFinalField),
		class.WithStaticField("counter", &counter),
		class.WithReadOnly("staticFinalField"),
		class.WithStaticMethod("version", version),
		class.WithStaticMethod("count", count),
		class.WithStaticMethod("pause", pause),
		class.WithAlias("TestClass"),
	}
}

// TextOptions are the registration options of Text.
func TextOptions() []class.Option {
	return []class.Option{
		class.WithConstructor(NewText),
		class.WithAlias("Text"),
	}
}

// Register registers the fixture classes with r.
func Register(r *class.Registry) error {
	if _, err := r.Register(class.TypeOf[SuperTestClass](), SuperOptions()...); err != nil {
		return err
	}
	if _, err := r.Register(class.TypeOf[TestClass](), TestClassOptions()...); err != nil {
		return err
	}
	if _, err := r.Register(class.TypeOf[Text](), TextOptions()...); err != nil {
		return err
	}

	return nil
}
