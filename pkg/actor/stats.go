package actor

import (
	"fmt"
	"sync"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// 系统统计信息
// ═══════════════════════════════════════════════════════════════════════════

// SystemStats 系统统计快照
type SystemStats struct {
	ID            string        // 系统实例 ID
	TotalActors   int64         // 当前存活的 Actor 数
	Spawned       int64         // 累计创建数
	Terminated    int64         // 累计终止数
	Failures      int64         // 因处理失败终止的数量
	TotalMessages int64         // 成功投递的消息数
	ProcessedMsgs int64         // 成功处理的消息数
	Pending       int64         // 邮箱中排队的消息数
	DeadLetters   int64         // 终止时被丢弃的消息数
	StartTime     time.Time     // 系统启动时间
	Uptime        time.Duration // 运行时长
}

// ═══════════════════════════════════════════════════════════════════════════
// 单个 Actor 的处理统计
// ═══════════════════════════════════════════════════════════════════════════

// ActorStats 单个 Actor 的处理统计快照
type ActorStats struct {
	Received int64 // 收到的用户消息数
	Handled  int64 // 成功处理数
	Errors   int64 // 返回错误或 panic 的次数

	TotalLatency time.Duration // Receive 累计耗时
	MinLatency   time.Duration
	MaxLatency   time.Duration

	LastError   error
	LastErrorAt time.Time
}

// AvgLatency 平均处理耗时
func (s ActorStats) AvgLatency() time.Duration {
	if s.Handled == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Handled)
}

// Merge 把另一个 Actor 的统计累加进来，用于汇总一组 Actor
func (s *ActorStats) Merge(o ActorStats) {
	if o.Handled > 0 && (s.Handled == 0 || o.MinLatency < s.MinLatency) {
		s.MinLatency = o.MinLatency
	}
	s.MaxLatency = max(s.MaxLatency, o.MaxLatency)
	s.Received += o.Received
	s.Handled += o.Handled
	s.Errors += o.Errors
	s.TotalLatency += o.TotalLatency
	if o.LastErrorAt.After(s.LastErrorAt) {
		s.LastError = o.LastError
		s.LastErrorAt = o.LastErrorAt
	}
}

// statsCollector 由处理任务写入、由任意 goroutine 读取
type statsCollector struct {
	mu    sync.Mutex
	stats ActorStats
}

func (c *statsCollector) received() {
	c.mu.Lock()
	c.stats.Received++
	c.mu.Unlock()
}

func (c *statsCollector) handled(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stats.Handled == 0 || latency < c.stats.MinLatency {
		c.stats.MinLatency = latency
	}
	c.stats.MaxLatency = max(c.stats.MaxLatency, latency)
	c.stats.Handled++
	c.stats.TotalLatency += latency
}

func (c *statsCollector) failed(err error) {
	c.mu.Lock()
	c.stats.Errors++
	c.stats.LastError = err
	c.stats.LastErrorAt = time.Now()
	c.mu.Unlock()
}

func (c *statsCollector) snapshot() ActorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ═══════════════════════════════════════════════════════════════════════════
// StatsActor 统计中间件 Actor
// ═══════════════════════════════════════════════════════════════════════════

// StatsActor 包装任意 Actor，记录每条用户消息的处理耗时和失败
type StatsActor struct {
	inner     Actor
	collector statsCollector
}

// NewStatsActor 创建带统计的 Actor 包装器
func NewStatsActor(inner Actor) *StatsActor {
	return &StatsActor{inner: inner}
}

// Receive 实现 Actor 接口
// 系统消息不计入统计
func (s *StatsActor) Receive(ctx *Context, msg Message) (err error) {
	switch msg.(type) {
	case *Started, *Stopped:
		return s.inner.Receive(ctx, msg)
	}

	s.collector.received()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("panic: %v", r)
			}
			s.collector.failed(perr)
			panic(r) // 由 Actor 单元终止该 Actor
		}
		if err != nil {
			s.collector.failed(err)
			return
		}
		s.collector.handled(time.Since(start))
	}()

	return s.inner.Receive(ctx, msg)
}

// Stats 获取统计快照
func (s *StatsActor) Stats() ActorStats {
	return s.collector.snapshot()
}
