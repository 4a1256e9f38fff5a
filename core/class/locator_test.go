package class_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/internal/fixture"
)

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
	anyType    = class.TypeOf[any]()
)

func lookup(t *testing.T, name string) *class.Class {
	t.Helper()

	c, err := newRegistry(t).Lookup(name)
	require.NoError(t, err)

	return c
}

func TestFindConstructor(t *testing.T) {
	c := lookup(t, "TestClass")

	tests := []struct {
		name       string
		args       []any
		wantParams []reflect.Type
		wantErr    error
	}{
		{name: "zero args", args: nil, wantParams: nil},
		{name: "name", args: []any{"Tom"}, wantParams: []reflect.Type{stringType}},
		{name: "name and age", args: []any{"Tom", 3}, wantParams: []reflect.Type{stringType, intType}},
		{name: "age", args: []any{3}, wantParams: []reflect.Type{intType}},
		{name: "no match", args: []any{1.5}, wantErr: class.ErrNoSuchConstructor},
		{name: "too many", args: []any{"Tom", 3, 4}, wantErr: class.ErrNoSuchConstructor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := class.FindConstructor(c, tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, class.KindConstructor, m.Member.Kind)
			require.Equal(t, tt.wantParams, m.Member.Params)
			require.Len(t, m.Args, len(tt.args))
		})
	}

	m, err := class.FindConstructorWithTypes(c, []reflect.Type{intType}, []any{5})
	require.NoError(t, err)
	require.Equal(t, []reflect.Type{intType}, m.Member.Params)
	require.False(t, m.Member.Exported)
}

func TestSynthesizedConstructor(t *testing.T) {
	c := lookup(t, "SuperTestClass")

	m, err := class.FindConstructor(c, nil)
	require.NoError(t, err)
	require.True(t, m.Member.Exported)
	require.Empty(t, m.Member.Params)

	_, err = class.FindConstructor(c, []any{"x"})
	require.ErrorIs(t, err, class.ErrNoSuchConstructor)
}

func TestFindMethod(t *testing.T) {
	c := lookup(t, "TestClass")

	tests := []struct {
		name       string
		method     string
		args       []any
		instance   bool
		wantOwner  string
		wantPath   []int
		wantParams []reflect.Type
		wantErr    error
		wantMsg    string
	}{
		{
			name:       "exact overload",
			method:     "echo",
			args:       []any{"x"},
			instance:   true,
			wantOwner:  "TestClass",
			wantParams: []reflect.Type{stringType},
		},
		{
			name:       "subtype overload",
			method:     "echo",
			args:       []any{1},
			instance:   true,
			wantOwner:  "TestClass",
			wantParams: []reflect.Type{anyType},
		},
		{
			name:       "nil matches the nillable overload",
			method:     "echo",
			args:       []any{nil},
			instance:   true,
			wantOwner:  "TestClass",
			wantParams: []reflect.Type{anyType},
		},
		{
			name:       "override hides the embedded method",
			method:     "whoAmI",
			instance:   true,
			wantOwner:  "TestClass",
			wantParams: nil,
		},
		{
			name:       "embedded method",
			method:     "levelUp",
			args:       []any{1},
			instance:   true,
			wantOwner:  "SuperTestClass",
			wantPath:   []int{0},
			wantParams: []reflect.Type{intType},
		},
		{
			name:       "static method without instance",
			method:     "version",
			wantOwner:  "TestClass",
			wantParams: nil,
		},
		{
			name:     "instance method without instance",
			method:   "getName",
			wantErr:  class.ErrNoSuchMethod,
			wantMsg:  "call create() first",
			instance: false,
		},
		{
			name:     "equally specific",
			method:   "accept",
			args:     []any{fixture.Both{}},
			instance: true,
			wantErr:  class.ErrAmbiguousMember,
		},
		{
			name:     "unknown",
			method:   "nope",
			instance: true,
			wantErr:  class.ErrNoSuchMethod,
			wantMsg:  "TestClass.nope()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := class.FindMethod(c, tt.method, tt.args, tt.instance)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorContains(t, err, tt.wantMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, fixturePkg+tt.wantOwner, m.Member.Owner.Name())
			require.Equal(t, tt.wantParams, m.Member.Params)
			if tt.wantPath == nil {
				require.Empty(t, m.Path)
			} else {
				require.Equal(t, tt.wantPath, m.Path)
			}
		})
	}
}

func TestFindMethodVariadic(t *testing.T) {
	c := lookup(t, "TestClass")

	m, err := class.FindMethod(c, "sum", []any{1, 2, 3}, true)
	require.NoError(t, err)
	require.True(t, m.Member.Variadic)
	require.Len(t, m.Args, 3)
	require.False(t, m.Spread)

	m, err = class.FindMethodWithTypes(c, "sum", []reflect.Type{intType, reflect.TypeOf([]int{})}, []any{1, []int{2, 3}}, true)
	require.NoError(t, err)
	require.True(t, m.Spread)

	require.Equal(t, "method "+fixturePkg+"TestClass.sum(int, ...int)", m.Member.String())
}

func TestFindMethodWithTypes(t *testing.T) {
	c := lookup(t, "TestClass")
	stringer := class.TypeOf[fmt.Stringer]()

	m, err := class.FindMethodWithTypes(c, "accept", []reflect.Type{stringer}, []any{fixture.Both{}}, true)
	require.NoError(t, err)
	require.Equal(t, []reflect.Type{stringer}, m.Member.Params)

	m, err = class.FindMethodWithTypes(c, "accept", []reflect.Type{class.TypeOf[error]()}, []any{nil}, true)
	require.NoError(t, err)
	require.True(t, m.Args[0].IsNil())

	_, err = class.FindMethodWithTypes(c, "accept", []reflect.Type{stringType}, []any{"x"}, true)
	require.ErrorIs(t, err, class.ErrNoSuchMethod)
	require.ErrorContains(t, err, "accept(string)")
}

func TestFindMethodText(t *testing.T) {
	c := lookup(t, "TestClass")

	m, err := class.FindMethodText(c, "setByte", []string{"9"}, true)
	require.NoError(t, err)
	require.Equal(t, byte(9), m.Args[0].Interface())

	_, err = class.FindMethodText(c, "setByte", []string{"9", "10"}, true)
	require.ErrorIs(t, err, class.ErrNoSuchMethod)
	require.ErrorContains(t, err, "setByte(text, text)")

	_, err = class.FindMethodText(c, "setByte", []string{"nine"}, true)
	require.Error(t, err)
	require.NotErrorIs(t, err, class.ErrNoSuchMethod)
}

func TestFindField(t *testing.T) {
	c := lookup(t, "TestClass")

	tests := []struct {
		name         string
		field        string
		instance     bool
		wantStatic   bool
		wantReadOnly bool
		wantExported bool
		wantPath     []int
		wantErr      string
	}{
		{name: "instance field", field: "name", instance: true},
		{name: "tagged read-only", field: "finalString", instance: true, wantReadOnly: true},
		{name: "exported read-only", field: "Code", instance: true, wantReadOnly: true, wantExported: true},
		{name: "embedded field", field: "superName", instance: true, wantPath: []int{0}},
		{name: "static field", field: "staticString", wantStatic: true},
		{name: "static read-only", field: "staticFinalField", wantStatic: true, wantReadOnly: true},
		{name: "instance field without instance", field: "name", wantErr: "instance field, call create() first"},
		{name: "unknown", field: "missing", instance: true, wantErr: "TestClass.missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := class.FindField(c, tt.field, tt.instance)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, class.ErrNoSuchField)
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, class.KindField, m.Member.Kind)
			require.Equal(t, tt.wantStatic, m.Member.Static)
			require.Equal(t, tt.wantReadOnly, m.Member.ReadOnly)
			require.Equal(t, tt.wantExported, m.Member.Exported)
			if tt.wantPath == nil {
				require.Empty(t, m.Path)
			} else {
				require.Equal(t, tt.wantPath, m.Path)
			}
		})
	}
}

func TestPathTo(t *testing.T) {
	c := lookup(t, "TestClass")

	path, ok := c.PathTo(class.TypeOf[fixture.SuperTestClass]())
	require.True(t, ok)
	require.Equal(t, []int{0}, path)

	path, ok = c.PathTo(class.TypeOf[fixture.TestClass]())
	require.True(t, ok)
	require.Empty(t, path)

	_, ok = c.PathTo(class.TypeOf[fixture.Text]())
	require.False(t, ok)
}
