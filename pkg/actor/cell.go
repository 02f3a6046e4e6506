package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

// 调度状态：同一时刻最多一个处理任务
const (
	cellIdle int32 = iota
	cellScheduled
)

// 生命周期状态
const (
	lifeAlive    int32 = iota
	lifeDraining       // 拒绝新消息，处理完已排队的消息后终止
	lifeStopping       // 拒绝新消息，丢弃已排队的消息后终止
	lifeStopped
)

var startedMessage = &Started{}

// actorCell Actor 单元，包含 Actor 及其运行时状态
type actorCell struct {
	system     *System
	pid        *PID
	actor      Actor
	mailbox    Mailbox
	mailboxCfg MailboxConfig
	dispatcher Dispatcher
	throughput int

	status atomic.Int32
	life   atomic.Int32

	// ctx 在终止时取消，唤醒阻塞在有界邮箱上的发送者
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	cause  error

	// 以下字段只由处理任务访问
	context Context
	started bool

	received  atomic.Int64
	processed atomic.Int64
}

func newActorCell(s *System, pid *PID, a Actor, cfg MailboxConfig, throughput int) *actorCell {
	ctx, cancel := context.WithCancel(s.ctx)
	c := &actorCell{
		system:     s,
		pid:        pid,
		actor:      a,
		mailbox:    newMailbox(cfg),
		mailboxCfg: cfg,
		dispatcher: s.dispatcher,
		throughput: throughput,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.context = Context{Self: pid, cell: c}
	pid.cell = c
	return c
}

// ============== 发送 ==============

// send 投递信封；block 只对有界邮箱生效
func (c *actorCell) send(ctx context.Context, env *Envelope, block bool) error {
	if c.life.Load() != lifeAlive {
		return ErrActorTerminated
	}

	err := c.mailbox.Enqueue(ctx, env, false)
	if errors.Is(err, ErrMailboxFull) && block {
		err = c.enqueueBlocking(ctx, env)
	}
	if err != nil {
		return err
	}

	c.received.Add(1)
	c.schedule()
	return nil
}

// enqueueBlocking 等待邮箱空位
// 调用方 ctx 结束、SendTimeout 到期或 Actor 终止时返回
// SendTimeout 只对 OverflowBlock 生效，OverflowFail 邮箱上的等待（AskWait）只受 ctx 限制
func (c *actorCell) enqueueBlocking(ctx context.Context, env *Envelope) error {
	waitCtx, cancel := MergeContextsWithCancel(c.ctx, ctx)
	defer cancel()
	if c.mailboxCfg.SendTimeout > 0 && c.mailboxCfg.Overflow == OverflowBlock {
		var timeoutCancel context.CancelFunc
		waitCtx, timeoutCancel = context.WithTimeout(waitCtx, c.mailboxCfg.SendTimeout)
		defer timeoutCancel()
	}

	err := c.mailbox.Enqueue(waitCtx, env, true)
	switch {
	case err == nil:
		return nil
	case c.ctx.Err() != nil:
		return ErrActorTerminated
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return ErrMailboxFull
	}
}

// schedule 空闲时把处理任务交给调度器
func (c *actorCell) schedule() {
	if c.status.CompareAndSwap(cellIdle, cellScheduled) {
		c.dispatcher.Schedule(c.run)
	}
}

// ============== 生命周期 ==============

// stop 立即停止，丢弃排队的消息
func (c *actorCell) stop() {
	for {
		life := c.life.Load()
		if life >= lifeStopping {
			return
		}
		if c.life.CompareAndSwap(life, lifeStopping) {
			break
		}
	}
	c.schedule()
}

// drain 优雅停止，处理完排队的消息后终止
func (c *actorCell) drain() {
	if c.life.CompareAndSwap(lifeAlive, lifeDraining) {
		c.schedule()
	}
}

// ============== 处理循环 ==============

// run 处理任务入口
// 设置 idle 之后重新检查邮箱，防止与发送者的 schedule 竞争时漏掉消息
func (c *actorCell) run() {
	for {
		if c.process() {
			return
		}
		c.status.Store(cellIdle)
		if !c.needsRun() || !c.status.CompareAndSwap(cellIdle, cellScheduled) {
			return
		}
	}
}

func (c *actorCell) needsRun() bool {
	if c.mailbox.Len() > 0 {
		return true
	}
	life := c.life.Load()
	return life == lifeDraining || life == lifeStopping
}

// process 处理一批消息
// 返回 true 表示达到吞吐量上限并已重新提交，调用方不能再访问 cell
func (c *actorCell) process() bool {
	switch c.life.Load() {
	case lifeStopped:
		// 终止后仍有发送者与终止竞争写入了消息
		c.discard()
		return false
	case lifeStopping:
		c.terminate(nil, nil)
		return false
	}

	if !c.started {
		c.started = true
		if err := c.invoke(&Envelope{Message: startedMessage}); err != nil {
			c.terminate(err, nil)
			return false
		}
	}

	for n := 0; ; n++ {
		if c.life.Load() == lifeStopping {
			c.terminate(nil, nil)
			return false
		}
		if n >= c.throughput {
			c.dispatcher.Schedule(c.run)
			return true
		}

		env := c.mailbox.Dequeue()
		if env == nil {
			if c.life.Load() == lifeDraining {
				c.terminate(nil, nil)
			}
			return false
		}

		if _, ok := env.Message.(*PoisonPill); ok {
			c.terminate(nil, env)
			return false
		}
		if err := c.invoke(env); err != nil {
			c.terminate(err, env)
			return false
		}
		c.processed.Add(1)
	}
}

// invoke 调用 Receive，捕获 panic
func (c *actorCell) invoke(env *Envelope) (err error) {
	ctx := &c.context
	ctx.Sender = env.Sender
	ctx.message = env.Message
	ctx.reply = env.reply
	ctx.forwarded = false

	defer func() {
		if r := recover(); r != nil {
			c.system.handlePanic(c.pid, env.Message, r, debug.Stack())
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &HandlerFailure{Actor: c.pid.ID, Kind: env.Message.Kind(), Err: cause, Panic: r}
		}
		ctx.Sender = nil
		ctx.message = nil
		ctx.reply = nil
	}()

	if rerr := c.actor.Receive(ctx, env.Message); rerr != nil {
		return &HandlerFailure{Actor: c.pid.ID, Kind: env.Message.Kind(), Err: rerr}
	}
	if env.reply != nil && !ctx.forwarded {
		env.reply.fail(ErrNoReply)
	}
	return nil
}

// terminate 终止 Actor
// 先标记为 stopped 再通知当前 Ask，保证调用方看到失败后再发送必然得到 ErrActorTerminated
func (c *actorCell) terminate(cause error, current *Envelope) {
	c.cause = cause
	c.life.Store(lifeStopped)

	if current != nil && current.reply != nil {
		if cause != nil {
			current.reply.fail(cause)
		} else {
			current.reply.fail(ErrActorTerminated)
		}
	}

	if c.started {
		if err := c.invoke(&Envelope{Message: &Stopped{}}); err != nil {
			c.system.logger.Debug("stopped handler failed", "actor", c.pid.ID, "error", err)
		}
	}

	c.cancel()
	dropped := c.discard()
	c.system.cellTerminated(c, cause, dropped)
	close(c.done)
}

// discard 清空邮箱，等待回复的调用方收到 ErrActorTerminated
func (c *actorCell) discard() int {
	n := 0
	for env := c.mailbox.Dequeue(); env != nil; env = c.mailbox.Dequeue() {
		if env.reply != nil {
			env.reply.fail(ErrActorTerminated)
		}
		c.system.deadLetter(c.pid, env)
		n++
	}
	return n
}
