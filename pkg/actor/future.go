package actor

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	futurePending int32 = iota
	futureCompleting
	futureDone
	futureAbandoned
)

// Future Ask 的一次性回复通道
//
// 状态只会从 pending 转换一次：完成（成功或失败）或被调用方放弃。
// 放弃之后的回复会被静默丢弃。
type Future struct {
	state  atomic.Int32
	done   chan struct{}
	result Message
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// fulfil 写入回复，只有第一次调用生效
func (f *Future) fulfil(msg Message) bool {
	return f.complete(msg, nil)
}

// fail 以错误完成，只有第一次调用生效
func (f *Future) fail(err error) bool {
	return f.complete(nil, err)
}

func (f *Future) complete(msg Message, err error) bool {
	if !f.state.CompareAndSwap(futurePending, futureCompleting) {
		return false
	}
	f.result = msg
	f.err = err
	f.state.Store(futureDone)
	close(f.done)
	return true
}

// abandon 调用方放弃等待；返回 false 表示已经完成
func (f *Future) abandon() bool {
	return f.state.CompareAndSwap(futurePending, futureAbandoned)
}

// Done 完成时关闭的通道，放弃的 Future 永远不会关闭
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Abandoned 调用方是否已放弃
func (f *Future) Abandoned() bool {
	return f.state.Load() == futureAbandoned
}

// IsDone 是否已完成
func (f *Future) IsDone() bool {
	return f.state.Load() == futureDone
}

// Result 返回结果，只应在 Done 关闭后调用
func (f *Future) Result() (Message, error) {
	if !f.IsDone() {
		return nil, ErrNoReply
	}
	return f.result, f.err
}

// Wait 等待结果直到 ctx 结束
// ctx 结束时放弃该 Future，之后到达的回复会被丢弃
func (f *Future) Wait(ctx context.Context) (Message, error) {
	if f.Abandoned() {
		return nil, context.Canceled
	}
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		if f.abandon() || f.Abandoned() {
			return nil, ctx.Err()
		}
		// 与完成竞争失败，结果马上可用
		<-f.done
		return f.result, f.err
	}
}

// WaitTimeout 带超时的等待
func (f *Future) WaitTimeout(timeout time.Duration) (Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return f.Wait(ctx)
}
