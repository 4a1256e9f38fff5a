package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/mirror/core/access"
	"github.com/anoideaopen/mirror/core/chain"
	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/config"
)

type tally struct {
	n int
}

func newTally(n int) *tally {
	return &tally{n: n}
}

func (t *tally) add(d int) int {
	t.n += d
	return t.n
}

var tallyLimit = 10

func useEngine(t *testing.T) *chain.Engine {
	t.Helper()

	e, err := chain.NewEngine()
	require.NoError(t, err)

	prev := SetEngine(e)
	t.Cleanup(func() {
		SetEngine(prev)
		tallyLimit = 10
	})

	_, err = Register[tally](
		class.WithConstructor(newTally),
		class.WithMethod("add", (*tally).add),
		class.WithStaticField("limit", &tallyLimit),
		class.WithAlias("Tally"),
	)
	require.NoError(t, err)

	return e
}

func TestEngineDefault(t *testing.T) {
	require.NotNil(t, Engine())
	require.Same(t, Engine(), Engine())

	e := useEngine(t)
	require.Same(t, e, Engine())
}

func TestOn(t *testing.T) {
	useEngine(t)

	v, err := On("Tally").Create(2).Call("add", 3).Get()
	require.NoError(t, err)
	require.Equal(t, 5, v)

	v, err = OnContext(context.Background(), "core.tally").Create(1).Read("n")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = OnInstance(newTally(4)).SimpleCall("add", 1)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	_, err = On("Nope").Get()
	require.ErrorIs(t, err, class.ErrClassNotFound)
}

func TestSimpleHelpers(t *testing.T) {
	useEngine(t)

	v, err := SimpleSet("Tally", "limit", 20)
	require.NoError(t, err)
	require.Equal(t, 20, v)
	require.Equal(t, 20, tallyLimit)

	_, err = SimpleCall("Tally", "add", 1)
	require.ErrorIs(t, err, class.ErrNoSuchMethod)
}

func TestConfigure(t *testing.T) {
	e := useEngine(t)

	shutdown, err := Configure(nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, access.Permissive, e.Policy())

	cfg, err := config.FromBytes([]byte("logging:\n  level: error\naccess:\n  mode: exported\n"))
	require.NoError(t, err)

	shutdown, err = Configure(cfg)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, access.ExportedOnly, e.Policy())

	_, err = On("Tally").Create(1).Call("add", 1).Get()
	require.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = Configure(&config.Config{Access: config.Access{Mode: "strict"}})
	require.ErrorIs(t, err, config.ErrUnknownAccessMode)

	_, err = Configure(&config.Config{Logging: config.Logging{Level: "loud"}})
	require.Error(t, err)
}
