package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/proxy"
	"github.com/anoideaopen/mirror/internal/fixture"
)

func TestAsInterface(t *testing.T) {
	e := newEngine(t)
	tc := fixture.NewTestClass("Tom")

	p, err := e.OpenInstance(tc).AsInterface(class.TypeOf[fixture.Describer]())
	require.NoError(t, err)

	v, err := p.Invoke("Describe")
	require.NoError(t, err)
	require.Equal(t, "test:Tom", v)

	named, err := e.OpenInstance(tc).AsInterface(class.TypeOf[fixture.Named]())
	require.NoError(t, err)

	_, err = named.Invoke("SetName", "Ann")
	require.NoError(t, err)
	v, err = named.Invoke("GetName")
	require.NoError(t, err)
	require.Equal(t, "Ann", v)
	require.Equal(t, "Ann", tc.Name())

	_, err = e.OpenInstance(tc).AsInterface(class.TypeOf[fixture.TestClass]())
	require.ErrorIs(t, err, proxy.ErrNotInterface)

	_, err = e.Open("TestClass").Create(1.5).AsInterface(class.TypeOf[fixture.Named]())
	require.ErrorIs(t, err, class.ErrNoSuchConstructor)
}

func TestAsInterfaceWithHandler(t *testing.T) {
	e := newEngine(t)

	var handled []error
	p, err := e.Open("TestClass").
		OnError(func(err error) { handled = append(handled, err) }).
		Create(1.5).
		AsInterface(class.TypeOf[fixture.Named]())
	require.NoError(t, err)
	require.Nil(t, p)
	require.Len(t, handled, 1)

	_, err = p.Invoke("GetName")
	require.ErrorIs(t, err, proxy.ErrUnknownMethod)
}

func TestUseInterface(t *testing.T) {
	e := newEngine(t)

	var d fixture.Describer
	require.NoError(t, e.Open("TestClass").Create("Tom").Use(&d))
	require.Equal(t, "test:Tom", d.Describe())

	var tp fixture.TextProxy
	require.NoError(t, e.Open("Text").Create("Hello World").Use(&tp))
	require.Equal(t, fixture.Text("World"), tp.Substring(6))
	require.Equal(t, 11, tp.Len())

	var n fixture.Named
	require.ErrorIs(t, e.Open("TestClass").Create("Tom").Use(&n), ErrUseTarget)
	require.ErrorIs(t, e.Open("TestClass").Create("Tom").Use(n), ErrUseTarget)
}

func TestUseFuncs(t *testing.T) {
	e := newEngine(t)

	var n fixture.NamedFuncs
	require.NoError(t, e.Open("TestClass").Create("Tom").Use(&n))

	require.Equal(t, "Tom", n.GetName())
	n.SetName("Ann")
	require.Equal(t, "Ann", n.GetName())

	msg, err := n.Greet("Hi")
	require.NoError(t, err)
	require.Equal(t, "Hi, Ann", msg)
}

func TestUseBeforeCreate(t *testing.T) {
	e := newEngine(t)

	var n fixture.NamedFuncs
	err := e.OpenInstance(nil).Use(&n)
	require.ErrorIs(t, err, ErrChainState)
}
