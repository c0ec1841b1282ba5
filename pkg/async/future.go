package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout 等待超时，结果尚未确定（不代表成功或失败）
	ErrTimeout = errors.New("async: timed out waiting for future completion")

	// ErrPanicked 异步函数发生 panic
	ErrPanicked = errors.New("async: function panicked")
)

// Future 只完成一次的异步结果
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Go 在新的 goroutine 中执行 fn，返回对应的 Future
// fn 的 panic 会被转换为 ErrPanicked 错误
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.result = zero
				f.err = fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()

		// 上下文已取消时不再执行
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Resolved 返回一个已完成的 Future
func Resolved[T any](result T, err error) *Future[T] {
	f := &Future[T]{result: result, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Await 阻塞直到完成
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext 等待完成或上下文结束
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout 最多等待 timeout，超时返回 ErrTimeout
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// IsComplete 非阻塞地判断是否已完成
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done 返回完成信号通道
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
