package actor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Message Actor 消息接口
// 所有 Actor 间传递的消息都必须实现此接口
type Message interface {
	// Kind 返回消息类型标识，用于日志和监控
	Kind() string
}

// Actor Actor 接口
// 实现此接口即可成为 Actor，实现者的字段就是 Actor 的私有状态
type Actor interface {
	// Receive 处理接收到的消息
	// 返回非 nil 错误（或 panic）会终止该 Actor，不影响其他 Actor
	Receive(ctx *Context, msg Message) error
}

// ActorFunc 函数式 Actor，便于快速创建简单 Actor
type ActorFunc func(ctx *Context, msg Message) error

// Receive 实现 Actor 接口
func (f ActorFunc) Receive(ctx *Context, msg Message) error {
	return f(ctx, msg)
}

// StateFunc 状态处理函数，state 指向 Actor 独占的状态
type StateFunc[S any] func(ctx *Context, state *S, msg Message) error

// stateActor 持有初始状态和处理函数
type stateActor[S any] struct {
	state   S
	handler StateFunc[S]
}

func (a *stateActor[S]) Receive(ctx *Context, msg Message) error {
	return a.handler(ctx, &a.state, msg)
}

// FromState 用初始状态和处理函数构造 Actor
//
//	counter := actor.FromState(int64(0), func(ctx *actor.Context, n *int64, msg actor.Message) error {
//		if m, ok := msg.(*Inc); ok {
//			*n += m.Amount
//			ctx.Reply(&Count{Value: *n})
//		}
//		return nil
//	})
func FromState[S any](initial S, handler StateFunc[S]) Actor {
	return &stateActor[S]{state: initial, handler: handler}
}

// Context Actor 执行上下文
// 每个 Actor 复用同一个 Context，只在 Receive 调用期间有效，不要在 Receive 之外持有
type Context struct {
	// Self 当前 Actor 的 PID
	Self *PID
	// Sender 消息发送者的 PID（如果有）
	Sender *PID

	cell      *actorCell
	message   Message
	reply     *Future
	forwarded bool
}

// Reply 回复消息给发送者
// 如果是 Ask 模式，写入 Future（只生效一次）
// 否则如果有 Sender，通过 Tell 发送响应
func (c *Context) Reply(msg Message) {
	if c.reply != nil {
		c.reply.fulfil(msg)
		return
	}
	if c.Sender != nil {
		if err := c.Sender.TrySend(msg); err != nil {
			c.cell.system.logger.Debug("reply dropped",
				"actor", c.Self.ID, "sender", c.Sender.ID, "kind", msg.Kind(), "error", err)
		}
	}
}

// Forward 转发当前消息到另一个 Actor
// 发送者和回复通道一并转交，由目标 Actor 负责回复
func (c *Context) Forward(target *PID) error {
	if c.message == nil {
		return nil
	}
	env := &Envelope{Message: c.message, Sender: c.Sender, reply: c.reply}
	if err := target.send(context.Background(), env, false); err != nil {
		return err
	}
	c.forwarded = true
	return nil
}

// Spawn 在同一系统中创建 Actor
func (c *Context) Spawn(actor Actor, name string) (*PID, error) {
	return c.cell.system.Spawn(actor, name)
}

// Stop 停止指定 Actor
func (c *Context) Stop(pid *PID) {
	pid.Stop()
}

// StopSelf 停止当前 Actor，当前消息处理完后生效
func (c *Context) StopSelf() {
	c.cell.stop()
}

// Context 获取 Go context，Actor 终止时取消
func (c *Context) Context() context.Context {
	return c.cell.ctx
}

// Message 获取当前正在处理的消息
func (c *Context) Message() Message {
	return c.message
}

// System 获取 Actor 系统引用
func (c *Context) System() *System {
	return c.cell.system
}

// Logger 返回带有 actor 字段的日志器
func (c *Context) Logger() *slog.Logger {
	return c.cell.system.logger.With("actor", c.Self.ID)
}

// Props Actor 属性配置
type Props struct {
	// Name Actor 名称，为空时自动生成
	Name string
	// Mailbox 邮箱配置，nil 使用系统默认配置
	Mailbox *MailboxConfig
	// Throughput 单次调度最多处理的消息数，<=0 使用系统默认值
	Throughput int
}

// DefaultProps 默认属性（无界邮箱）
func DefaultProps(name string) *Props {
	return &Props{
		Name: name,
	}
}

// WithMailbox 设置邮箱配置
func (p *Props) WithMailbox(cfg MailboxConfig) *Props {
	p.Mailbox = &cfg
	return p
}

// WithMailboxSize 设置有界邮箱容量，满时阻塞发送者
func (p *Props) WithMailboxSize(size int) *Props {
	cfg := Bounded(size)
	p.Mailbox = &cfg
	return p
}

// WithThroughput 设置单次调度处理的消息数
func (p *Props) WithThroughput(n int) *Props {
	p.Throughput = n
	return p
}

// DispatcherType 调度器类型
type DispatcherType int

const (
	// DispatcherDefault 默认调度器（每次激活一个 goroutine，由 Go 运行时调度）
	DispatcherDefault DispatcherType = iota
	// DispatcherShared 共享调度器（固定数量的 worker 共享运行队列）
	DispatcherShared
)

// String 返回调度器名称
func (d DispatcherType) String() string {
	switch d {
	case DispatcherDefault:
		return "default"
	case DispatcherShared:
		return "shared"
	default:
		return "unknown"
	}
}

// ParseDispatcherType 解析调度器名称
func ParseDispatcherType(s string) (DispatcherType, error) {
	switch s {
	case "", "default", "goroutine":
		return DispatcherDefault, nil
	case "shared", "pool":
		return DispatcherShared, nil
	default:
		return DispatcherDefault, fmt.Errorf("unknown dispatcher %q", s)
	}
}

// ============== 系统消息 ==============

// Started Actor 首次被调度时收到，先于任何用户消息
type Started struct{}

// Kind 实现 Message 接口
func (s *Started) Kind() string { return "system.started" }

// Stopped Actor 终止前收到的最后一条消息
type Stopped struct{}

// Kind 实现 Message 接口
func (s *Stopped) Kind() string { return "system.stopped" }

// PoisonPill 毒丸消息，处理完之前排队的消息后停止 Actor
type PoisonPill struct{}

// Kind 实现 Message 接口
func (p *PoisonPill) Kind() string { return "system.poison_pill" }

// ============== 请求/响应支持 ==============

// ResponseTimeout 响应超时错误
type ResponseTimeout struct {
	Target  *PID
	Timeout time.Duration
}

// Kind 实现 Message 接口
func (r *ResponseTimeout) Kind() string { return "system.response_timeout" }

// Error 实现 error 接口
func (r *ResponseTimeout) Error() string {
	return fmt.Sprintf("request to %s timed out after %v", r.Target, r.Timeout)
}

// ============== 通用消息类型 ==============

// SimpleMessage 简单消息，用于快速创建消息
type SimpleMessage struct {
	kind    string
	Payload any
}

// NewSimpleMessage 创建简单消息
func NewSimpleMessage(kind string, payload any) *SimpleMessage {
	return &SimpleMessage{kind: kind, Payload: payload}
}

// Kind 实现 Message 接口
func (m *SimpleMessage) Kind() string { return m.kind }
