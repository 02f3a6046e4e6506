package actor

import (
	"context"
	"errors"
	"time"
)

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// PID Actor 进程标识符
// 可以在 goroutine 之间自由复制和共享，是与 Actor 通信的唯一方式
type PID struct {
	// ID 系统内唯一的名称
	ID string

	system *System
	cell   *actorCell
}

// String 返回 PID 的字符串表示
func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	if p.system != nil {
		return p.system.name + "/" + p.ID
	}
	return p.ID
}

// send 所有发送方式的入口
func (p *PID) send(ctx context.Context, env *Envelope, block bool) error {
	if p == nil || p.cell == nil {
		return ErrActorTerminated
	}
	if env.Message == nil {
		return ErrNilMessage
	}
	return p.cell.send(ctx, env, block)
}

// blocking 邮箱满时是否等待
func (p *PID) blocking() bool {
	return p != nil && p.cell != nil && p.cell.mailboxCfg.Overflow == OverflowBlock
}

// ============== 发送 ==============

// Tell 发送消息（fire-and-forget）
// 有界邮箱满时按溢出策略阻塞或返回 ErrMailboxFull
func (p *PID) Tell(msg Message) error {
	return p.TellContext(context.Background(), msg)
}

// TellContext 带 context 的 Tell，阻塞等待邮箱空位时可被取消
func (p *PID) TellContext(ctx context.Context, msg Message) error {
	return p.send(ctx, &Envelope{Message: msg}, p.blocking())
}

// TellFrom 携带发送者发送消息，接收方可以通过 ctx.Reply 回复
func (p *PID) TellFrom(msg Message, sender *PID) error {
	return p.send(context.Background(), &Envelope{Message: msg, Sender: sender}, p.blocking())
}

// TrySend 非阻塞发送，邮箱满时立即返回 ErrMailboxFull
func (p *PID) TrySend(msg Message) error {
	return p.send(context.Background(), &Envelope{Message: msg}, false)
}

// ============== 请求/响应 ==============

// AskAsync 发送请求，投递后返回 Future
// 投递遵循邮箱的溢出策略：OverflowBlock 的邮箱已满时会阻塞到有空位或 ctx 结束，
// OverflowFail 的邮箱已满时返回的 Future 带有 ErrMailboxFull。
// 投递失败时返回的 Future 已经带有错误
func (p *PID) AskAsync(ctx context.Context, msg Message) *Future {
	return p.ask(ctx, msg, p.blocking())
}

func (p *PID) ask(ctx context.Context, msg Message, block bool) *Future {
	f := newFuture()
	if err := p.send(ctx, &Envelope{Message: msg, reply: f}, block); err != nil {
		f.fail(err)
	}
	return f
}

// Ask 发送请求并等待回复
// ctx 结束时放弃等待，Actor 之后的回复被丢弃；处理期间 Actor 终止则返回错误
func (p *PID) Ask(ctx context.Context, msg Message) (Message, error) {
	return p.AskAsync(ctx, msg).Wait(ctx)
}

// AskWait 发送请求并等待回复，邮箱已满时总是等待空位，不受溢出策略影响
// 适合作为屏障：OverflowFail 的邮箱在突发写满后仍能排上队
func (p *PID) AskWait(ctx context.Context, msg Message) (Message, error) {
	return p.ask(ctx, msg, true).Wait(ctx)
}

// Request 带超时的 Ask，超时返回 *ResponseTimeout
func (p *PID) Request(msg Message, timeout time.Duration) (Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := p.Ask(ctx, msg)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, &ResponseTimeout{Target: p, Timeout: timeout}
	}
	return resp, err
}

// ============== 生命周期 ==============

// Stop 立即停止 Actor，丢弃排队的消息
func (p *PID) Stop() {
	if p != nil && p.cell != nil {
		p.cell.stop()
	}
}

// IsAlive 是否仍接受消息
func (p *PID) IsAlive() bool {
	return p != nil && p.cell != nil && p.cell.life.Load() == lifeAlive
}

// Done Actor 终止后关闭
func (p *PID) Done() <-chan struct{} {
	if p == nil || p.cell == nil {
		return closedDone
	}
	return p.cell.done
}

// Err 返回终止原因，正常停止或尚未终止时为 nil
func (p *PID) Err() error {
	if p == nil || p.cell == nil {
		return nil
	}
	select {
	case <-p.cell.done:
		return p.cell.cause
	default:
		return nil
	}
}

// MailboxLen 当前排队的消息数
func (p *PID) MailboxLen() int64 {
	if p == nil || p.cell == nil {
		return 0
	}
	return p.cell.mailbox.Len()
}
