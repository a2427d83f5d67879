package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_Get(t *testing.T) {
	t.Run("成功した値は再利用されること", func(t *testing.T) {
		var calls atomic.Int32
		c := New(func(context.Context) (string, error) {
			calls.Add(1)
			return "client", nil
		})
		for range 3 {
			v, err := c.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "client", v)
		}
		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, c.Ready())
	})

	t.Run("失敗は保持されず再試行されること", func(t *testing.T) {
		var calls atomic.Int32
		c := New(func(context.Context) (int, error) {
			if calls.Add(1) == 1 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		_, err := c.Get(context.Background())
		assert.Error(t, err)
		assert.False(t, c.Ready())

		v, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("同時呼び出しでも初期化は 1 回", func(t *testing.T) {
		var calls atomic.Int32
		c := New(func(context.Context) (int, error) {
			calls.Add(1)
			time.Sleep(20 * time.Millisecond)
			return 1, nil
		})
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Get(context.Background())
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("初期化関数が無ければ ErrNilInit", func(t *testing.T) {
		c := New[int](nil)
		_, err := c.Get(context.Background())
		assert.ErrorIs(t, err, ErrNilInit)
	})
}
