package actor

import (
	"context"
	"errors"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════
// 通用请求-回复辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// Ask 向 Actor 发送请求并把回复断言为 T
//
// 用法示例:
//
//	type GetCount struct{}
//	func (m *GetCount) Kind() string { return "get_count" }
//
//	count, err := actor.Ask[*Count](ctx, pid, &GetCount{})
func Ask[T Message](ctx context.Context, pid *PID, msg Message) (T, error) {
	resp, err := pid.Ask(ctx, msg)
	return replyAs[T](pid, resp, err)
}

// AskWait 同 Ask，但邮箱已满时总是等待空位，见 [PID.AskWait]
func AskWait[T Message](ctx context.Context, pid *PID, msg Message) (T, error) {
	resp, err := pid.AskWait(ctx, msg)
	return replyAs[T](pid, resp, err)
}

func replyAs[T Message](pid *PID, resp Message, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	result, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("actor %s replied %s, want %T", pid.ID, resp.Kind(), zero)
	}
	return result, nil
}

// AskAll 并发向多个 Actor 发送同一请求，按顺序返回每个 Actor 的结果
func AskAll(ctx context.Context, pids []*PID, msg Message) ([]Message, []error) {
	futures := make([]*Future, len(pids))
	for i, pid := range pids {
		futures[i] = pid.AskAsync(ctx, msg)
	}

	results := make([]Message, len(pids))
	errs := make([]error, len(pids))
	for i, f := range futures {
		results[i], errs[i] = f.Wait(ctx)
	}
	return results, errs
}

// ═══════════════════════════════════════════════════════════════════════════
// Context 工具函数
// ═══════════════════════════════════════════════════════════════════════════

// MergeContextsWithCancel 合并 context 并返回取消函数
// 任一 context 取消则返回的 context 也取消，调用者负责在不再需要时调用 cancel 以释放资源
func MergeContextsWithCancel(parent, child context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if child == nil || child.Done() == nil {
		return context.WithCancel(parent)
	}

	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(child, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 错误处理工具
// ═══════════════════════════════════════════════════════════════════════════

// IsContextError 检查错误是否为 context 相关错误
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
