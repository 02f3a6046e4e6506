package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Envelope 消息信封
type Envelope struct {
	Message Message
	Sender  *PID
	reply   *Future
}

// Reply 返回 Ask 模式的回复通道，Tell 时为 nil
func (e *Envelope) Reply() *Future {
	return e.reply
}

// Mailbox 单个 Actor 的消息队列
//
// 多个发送者可以并发调用 Enqueue，Dequeue 同一时刻只能有一个调用者，
// 由 Actor 的处理循环保证。
type Mailbox interface {
	// Enqueue 放入消息
	// 有界邮箱满时：block 为 false 返回 ErrMailboxFull，为 true 等待空位直到 ctx 结束
	Enqueue(ctx context.Context, env *Envelope, block bool) error
	// Dequeue 取出最早的消息，邮箱为空时返回 nil
	Dequeue() *Envelope
	// Len 当前排队的消息数
	Len() int64
	// Cap 容量，0 表示无界
	Cap() int
}

// OverflowPolicy 有界邮箱满时 Tell 的行为
type OverflowPolicy int

const (
	// OverflowBlock 阻塞发送者直到有空位、ctx 结束或 SendTimeout 到期
	OverflowBlock OverflowPolicy = iota
	// OverflowFail 立即返回 ErrMailboxFull
	OverflowFail
)

// String 返回策略名称
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MailboxConfig 邮箱配置
type MailboxConfig struct {
	// Capacity 容量，0 表示无界
	Capacity int
	// Overflow 满时的发送策略，只对有界邮箱生效
	Overflow OverflowPolicy
	// SendTimeout 阻塞发送的最长等待时间，0 表示只受调用方 ctx 限制
	SendTimeout time.Duration
}

// Unbounded 无界邮箱配置
func Unbounded() MailboxConfig {
	return MailboxConfig{}
}

// Bounded 有界邮箱配置，满时阻塞
func Bounded(capacity int) MailboxConfig {
	return MailboxConfig{Capacity: capacity, Overflow: OverflowBlock}
}

// IsBounded 是否有界
func (c MailboxConfig) IsBounded() bool {
	return c.Capacity > 0
}

// newMailbox 按配置创建邮箱
func newMailbox(cfg MailboxConfig) Mailbox {
	if cfg.IsBounded() {
		return NewBoundedMailbox(cfg.Capacity)
	}
	return NewUnboundedMailbox()
}

// ═══════════════════════════════════════════════════════════════════════════
// 无锁 MPSC 队列
// ═══════════════════════════════════════════════════════════════════════════

type queueNode struct {
	next atomic.Pointer[queueNode]
	env  *Envelope
}

var queueNodePool = sync.Pool{New: func() any { return new(queueNode) }}

// mpscQueue 多生产者单消费者链表队列
// head 只由消费者修改，tail 由生产者通过 Swap 追加
type mpscQueue struct {
	head atomic.Pointer[queueNode]
	_    [56]byte
	tail atomic.Pointer[queueNode]
	_    [56]byte
	len  atomic.Int64
}

func (q *mpscQueue) init() {
	stub := queueNodePool.Get().(*queueNode)
	stub.next.Store(nil)
	stub.env = nil
	q.head.Store(stub)
	q.tail.Store(stub)
}

func (q *mpscQueue) push(env *Envelope) {
	n := queueNodePool.Get().(*queueNode)
	n.env = env
	n.next.Store(nil)
	q.len.Add(1)
	prev := q.tail.Swap(n)
	prev.next.Store(n)
}

func (q *mpscQueue) pop() *Envelope {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}
	q.head.Store(next)
	env := next.env
	next.env = nil
	q.len.Add(-1)

	head.next.Store(nil)
	queueNodePool.Put(head)
	return env
}

// ═══════════════════════════════════════════════════════════════════════════
// 无界邮箱
// ═══════════════════════════════════════════════════════════════════════════

// UnboundedMailbox 无界邮箱，Enqueue 永不阻塞
type UnboundedMailbox struct {
	q mpscQueue
}

var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox 创建无界邮箱
func NewUnboundedMailbox() *UnboundedMailbox {
	m := &UnboundedMailbox{}
	m.q.init()
	return m
}

// Enqueue 实现 Mailbox
func (m *UnboundedMailbox) Enqueue(_ context.Context, env *Envelope, _ bool) error {
	m.q.push(env)
	return nil
}

// Dequeue 实现 Mailbox
func (m *UnboundedMailbox) Dequeue() *Envelope {
	return m.q.pop()
}

// Len 实现 Mailbox
func (m *UnboundedMailbox) Len() int64 {
	return m.q.len.Load()
}

// Cap 实现 Mailbox
func (m *UnboundedMailbox) Cap() int {
	return 0
}

// ═══════════════════════════════════════════════════════════════════════════
// 有界邮箱
// ═══════════════════════════════════════════════════════════════════════════

// BoundedMailbox 有界邮箱
//
// 每条排队的消息占用一个信号量许可：入队前获取，出队后释放。
// 因此排队数 <= 已持有许可数 <= 容量，并发发送也不会超额。
type BoundedMailbox struct {
	q        mpscQueue
	sem      *semaphore.Weighted
	capacity int
}

var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox 创建有界邮箱，capacity 必须为正数
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity <= 0 {
		panic("actor: bounded mailbox capacity must be positive")
	}
	m := &BoundedMailbox{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
	m.q.init()
	return m
}

// Enqueue 实现 Mailbox
func (m *BoundedMailbox) Enqueue(ctx context.Context, env *Envelope, block bool) error {
	if !m.sem.TryAcquire(1) {
		if !block {
			return ErrMailboxFull
		}
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	m.q.push(env)
	return nil
}

// Dequeue 实现 Mailbox
func (m *BoundedMailbox) Dequeue() *Envelope {
	env := m.q.pop()
	if env != nil {
		m.sem.Release(1)
	}
	return env
}

// Len 实现 Mailbox
func (m *BoundedMailbox) Len() int64 {
	return m.q.len.Load()
}

// Cap 实现 Mailbox
func (m *BoundedMailbox) Cap() int {
	return m.capacity
}
