// Package lazy は最初の利用時に一度だけ初期化される値を提供します。
package lazy

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNilInit は初期化関数が設定されていないことを示します。
var ErrNilInit = errors.New("初期化関数が設定されていません")

// Cell は初期化に成功した値だけを保持するセルです。
// 失敗した初期化は保持されず、次の Get で再試行されるのだ。
type Cell[T any] struct {
	init  func(ctx context.Context) (T, error)
	group singleflight.Group

	mu    sync.RWMutex
	value T
	ready bool
}

// New は初期化関数を受け取って Cell を生成します。
func New[T any](init func(ctx context.Context) (T, error)) *Cell[T] {
	return &Cell[T]{init: init}
}

// Get は値を返します。同時に呼ばれた場合も初期化は 1 回だけ実行されます。
func (c *Cell[T]) Get(ctx context.Context) (T, error) {
	if v, ok := c.load(); ok {
		return v, nil
	}
	var zero T
	if c.init == nil {
		return zero, ErrNilInit
	}

	v, err, _ := c.group.Do("init", func() (any, error) {
		if v, ok := c.load(); ok {
			return v, nil
		}
		v, err := c.init(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value, c.ready = v, true
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Ready は初期化済みかどうかを返します。
func (c *Cell[T]) Ready() bool {
	_, ok := c.load()
	return ok
}

func (c *Cell[T]) load() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.ready
}
