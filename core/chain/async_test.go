package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/mirror/core/class"
	"github.com/anoideaopen/mirror/core/invoke"
	"github.com/anoideaopen/mirror/internal/fixture"
)

type outcome struct {
	v   any
	err error
}

func await(t *testing.T, done <-chan outcome) outcome {
	t.Helper()

	select {
	case o := <-done:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("onComplete was not called")
		return outcome{}
	}
}

func TestAsyncReturnsImmediately(t *testing.T) {
	e := newEngine(t)
	done := make(chan outcome, 1)

	start := time.Now()
	e.Open("TestClass").Create("Tom").Async(func(b *Bound) (any, error) {
		return b.Call("Sleep", 2*time.Second).Get()
	}, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	require.Less(t, time.Since(start), time.Second)

	o := await(t, done)
	require.NoError(t, o.err)
	require.Equal(t, "slept Tom", o.v)
	require.GreaterOrEqual(t, time.Since(start), 2*time.Second)
}

func TestAsyncDefaultStep(t *testing.T) {
	e := newEngine(t)
	done := make(chan outcome, 1)

	e.Open("TestClass").Create("Tom").Call("getName").Async(nil, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})

	o := await(t, done)
	require.NoError(t, o.err)
	require.Equal(t, "Tom", o.v)
}

func TestAsyncWithoutInstance(t *testing.T) {
	e := newEngine(t)
	done := make(chan outcome, 1)

	start := time.Now()
	e.Open("TestClass").Async(func(c *Chain) (any, error) {
		return c.Call("pause", 500*time.Millisecond).Get()
	}, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	require.Less(t, time.Since(start), 250*time.Millisecond)

	o := await(t, done)
	require.NoError(t, o.err)
	require.Equal(t, "paused", o.v)
	require.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)

	e.Open("TestClass").Call("version").Async(nil, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	o = await(t, done)
	require.NoError(t, o.err)
	require.Equal(t, "v1", o.v)

	e.Open("TestClass").Async(func(c *Chain) (any, error) {
		return c.Call("getName").Get()
	}, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	o = await(t, done)
	require.ErrorIs(t, o.err, class.ErrNoSuchMethod)
}

func TestAsyncFailures(t *testing.T) {
	e := newEngine(t)

	t.Run("without handler", func(t *testing.T) {
		done := make(chan outcome, 1)
		e.Open("TestClass").Create("Tom").Async(func(b *Bound) (any, error) {
			return b.Call("Fail").Get()
		}, func(v any, err error) {
			done <- outcome{v: v, err: err}
		})

		o := await(t, done)
		require.ErrorIs(t, o.err, fixture.ErrFixture)
	})

	t.Run("with handler", func(t *testing.T) {
		var handled []error
		done := make(chan outcome, 1)
		e.Open("TestClass").Create("Tom").OnError(func(err error) {
			handled = append(handled, err)
		}).Async(func(b *Bound) (any, error) {
			return b.Call("Fail").Get()
		}, func(v any, err error) {
			done <- outcome{v: v, err: err}
		})

		o := await(t, done)
		require.NoError(t, o.err)
		require.Nil(t, o.v)
		require.Len(t, handled, 1)
		require.ErrorIs(t, handled[0], fixture.ErrFixture)
	})

	t.Run("panicking step", func(t *testing.T) {
		var handled []error
		done := make(chan outcome, 1)
		e.Open("TestClass").Create("Tom").OnError(func(err error) {
			handled = append(handled, err)
		}).Async(func(*Bound) (any, error) {
			panic("step failed")
		}, func(v any, err error) {
			done <- outcome{v: v, err: err}
		})

		o := await(t, done)
		require.NoError(t, o.err)
		require.Len(t, handled, 1)
		require.ErrorIs(t, handled[0], invoke.ErrPanic)
	})
}

func TestRunAsync(t *testing.T) {
	done := make(chan outcome, 1)
	errBoom := errors.New("boom")

	RunAsync(context.Background(), func(context.Context) (any, error) {
		return nil, errBoom
	}, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	require.ErrorIs(t, await(t, done).err, errBoom)

	RunAsync(context.TODO(), func(context.Context) (any, error) {
		panic(errBoom)
	}, func(v any, err error) {
		done <- outcome{v: v, err: err}
	})
	o := await(t, done)
	require.ErrorIs(t, o.err, invoke.ErrPanic)
	require.ErrorContains(t, o.err, "boom")
}
