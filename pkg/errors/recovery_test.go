package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	trainRound := func() (err error) {
		defer Recover(&err, "gbdt.Train")
		panic("index out of range")
	}

	err := trainRound()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr), "expected *PanicError, got %T", err)
	assert.Equal(t, "gbdt.Train", panicErr.Operation)
	assert.Equal(t, "index out of range", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in gbdt.Train: index out of range", panicErr.Error())
}

func TestRecover_WithoutPanic(t *testing.T) {
	ok := func() (err error) {
		defer Recover(&err, "noop")
		return nil
	}
	assert.NoError(t, ok())
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("write model")

	fn := func() (err error) {
		defer Recover(&err, "Booster.Save")
		err = originalErr
		panic("nil map")
	}

	err := fn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Booster.Save")
	assert.Contains(t, err.Error(), "write model")
	assert.True(t, errors.Is(err, originalErr))
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assert.NoError(t, SafeExecute("predict", func() error { return nil }))
	})

	t.Run("function error is returned as is", func(t *testing.T) {
		want := fmt.Errorf("function error")
		assert.Same(t, want, SafeExecute("predict", func() error { return want }))
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("predict", func() error { panic(42) })
		var panicErr *PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, 42, panicErr.PanicValue)
	})
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("TestOp", "test value")
	str := panicErr.String()
	assert.True(t, strings.Contains(str, "Stack trace:"))
	assert.True(t, strings.HasPrefix(str, "panic in TestOp: test value"))
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
