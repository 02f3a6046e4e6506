package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// System Actor 系统
// 管理所有 Actor 的创建、查找和生命周期，消息直接投递到目标 Actor 的邮箱
type System struct {
	// 基本信息
	id   string
	name string

	// Actor 注册表
	registry *registry
	seq      atomic.Uint64

	dispatcher Dispatcher

	// 生命周期控制
	// spawnMu 保证关闭开始后不会再有 Actor 注册成功
	ctx       context.Context
	cancel    context.CancelFunc
	spawnMu   sync.RWMutex
	wg        sync.WaitGroup
	isRunning atomic.Bool
	closeOnce sync.Once

	// 配置
	config *SystemConfig

	// 统计信息
	stats systemCounters

	// 日志
	logger *slog.Logger
}

// SystemConfig 系统配置
type SystemConfig struct {
	// DefaultMailbox 未在 Props 中指定邮箱时使用的配置
	DefaultMailbox MailboxConfig
	// Dispatcher 调度器类型
	Dispatcher DispatcherType
	// Workers 共享调度器的 worker 数量，<=0 时为 GOMAXPROCS
	Workers int
	// Throughput 单次调度最多处理的消息数
	Throughput int
	// ShutdownTimeout Shutdown 等待 Actor 处理完剩余消息的时间
	ShutdownTimeout time.Duration
	// EnableDeadLetterLogging 是否记录死信
	EnableDeadLetterLogging bool
	// PanicHandler panic 处理函数，为 nil 时记录错误日志
	PanicHandler func(actor *PID, msg Message, err any)
	// Logger 自定义日志器
	Logger *slog.Logger
}

// DefaultSystemConfig 默认系统配置
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DefaultMailbox:          Unbounded(),
		Dispatcher:              DispatcherDefault,
		Throughput:              300,
		ShutdownTimeout:         30 * time.Second,
		EnableDeadLetterLogging: true,
		PanicHandler:            nil, // 使用默认处理
		Logger:                  nil, // 使用默认 logger
	}
}

// systemCounters 系统级计数
// 消息计数保存在各个 cell 中，Actor 终止时并入 retired*，避免热路径争用同一个原子变量
type systemCounters struct {
	spawned          atomic.Int64
	terminated       atomic.Int64
	failures         atomic.Int64
	deadLetters      atomic.Int64
	retiredReceived  atomic.Int64
	retiredProcessed atomic.Int64
	startTime        time.Time
}

// NewSystem 创建新的 Actor 系统
func NewSystem(name string) *System {
	return NewSystemWithConfig(name, DefaultSystemConfig())
}

// NewSystemWithConfig 使用配置创建 Actor 系统
func NewSystemWithConfig(name string, config *SystemConfig) *System {
	if config == nil {
		config = DefaultSystemConfig()
	}
	if config.Throughput <= 0 {
		config.Throughput = DefaultSystemConfig().Throughput
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultSystemConfig().ShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &System{
		id:         uuid.NewString(),
		name:       name,
		registry:   newRegistry(),
		dispatcher: newDispatcher(config.Dispatcher, config.Workers),
		ctx:        ctx,
		cancel:     cancel,
		config:     config,
		logger:     logger.With("system", name),
	}
	s.stats.startTime = time.Now()
	s.isRunning.Store(true)

	s.logger.Info("actor system started",
		"id", s.id,
		"dispatcher", config.Dispatcher.String(),
		"throughput", config.Throughput)
	return s
}

// ID 返回系统实例 ID
func (s *System) ID() string {
	return s.id
}

// Name 返回系统名称
func (s *System) Name() string {
	return s.name
}

// Logger 返回系统日志器
func (s *System) Logger() *slog.Logger {
	return s.logger
}

// ============== 创建 ==============

// Spawn 创建 Actor，name 为空时自动生成
func (s *System) Spawn(actor Actor, name string) (*PID, error) {
	return s.SpawnWithProps(actor, DefaultProps(name))
}

// SpawnWithProps 使用属性创建 Actor
func (s *System) SpawnWithProps(actor Actor, props *Props) (*PID, error) {
	if actor == nil {
		return nil, errors.New("actor: nil actor")
	}
	if props == nil {
		props = DefaultProps("")
	}

	cfg := s.config.DefaultMailbox
	if props.Mailbox != nil {
		cfg = *props.Mailbox
	}
	throughput := props.Throughput
	if throughput <= 0 {
		throughput = s.config.Throughput
	}

	name := props.Name
	switch {
	case name == "":
		name = "$" + strconv.FormatUint(s.seq.Add(1), 10)
	case strings.HasPrefix(name, "$"):
		return nil, fmt.Errorf("%w: %s", ErrReservedName, name)
	}

	s.spawnMu.RLock()
	defer s.spawnMu.RUnlock()

	if !s.isRunning.Load() {
		return nil, ErrSystemStopped
	}

	pid := &PID{ID: name, system: s}
	cell := newActorCell(s, pid, actor, cfg, throughput)
	if !s.registry.add(cell) {
		cell.cancel()
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	s.wg.Add(1)
	s.stats.spawned.Add(1)

	// 立即激活，保证 Started 在任何用户消息之前送达且不依赖第一条消息
	cell.schedule()

	s.logger.Debug("spawned actor", "name", name, "mailbox_capacity", cfg.Capacity)
	return pid, nil
}

// ============== 查找 ==============

// Lookup 按名称查找存活的 Actor
func (s *System) Lookup(name string) (*PID, bool) {
	if cell, ok := s.registry.get(name); ok {
		return cell.pid, true
	}
	return nil, false
}

// ListActors 列出所有 Actor
func (s *System) ListActors() []*PID {
	cells := s.registry.snapshot()
	pids := make([]*PID, 0, len(cells))
	for _, cell := range cells {
		pids = append(pids, cell.pid)
	}
	return pids
}

// Count 返回 Actor 数量
func (s *System) Count() int {
	return s.registry.count()
}

// IsRunning 检查系统是否在运行
func (s *System) IsRunning() bool {
	return s.isRunning.Load()
}

// ============== 广播 ==============

// Broadcast 向所有 Actor 非阻塞发送，返回成功投递的数量
func (s *System) Broadcast(msg Message) int {
	return s.BroadcastWithFilter(msg, nil)
}

// BroadcastWithFilter 向满足条件的 Actor 非阻塞发送
func (s *System) BroadcastWithFilter(msg Message, filter func(*PID) bool) int {
	delivered := 0
	for _, cell := range s.registry.snapshot() {
		if filter != nil && !filter(cell.pid) {
			continue
		}
		if err := cell.pid.TrySend(msg); err != nil {
			s.logger.Debug("broadcast skipped actor", "actor", cell.pid.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// ============== 停止 ==============

// Stop 立即停止 Actor，丢弃排队的消息
func (s *System) Stop(pid *PID) {
	pid.Stop()
}

// StopGracefully 优雅停止 Actor
// 不再接受新消息，处理完已排队的消息后终止
func (s *System) StopGracefully(pid *PID, timeout time.Duration) error {
	if pid == nil || pid.cell == nil {
		return nil
	}
	pid.cell.drain()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-pid.Done():
		return nil
	case <-timer.C:
		return fmt.Errorf("timeout waiting for actor %s to stop", pid.ID)
	}
}

// Shutdown 关闭整个 Actor 系统
func (s *System) Shutdown() {
	s.ShutdownWithTimeout(s.config.ShutdownTimeout)
}

// ShutdownWithTimeout 带超时的关闭
// 所有 Actor 先处理完已排队的消息，超时后强制停止剩余的 Actor
func (s *System) ShutdownWithTimeout(timeout time.Duration) {
	s.shutdown(true, timeout)
}

// ShutdownNow 立即关闭，丢弃所有排队的消息
func (s *System) ShutdownNow() {
	s.shutdown(false, s.config.ShutdownTimeout)
}

func (s *System) shutdown(graceful bool, timeout time.Duration) {
	s.spawnMu.Lock()
	wasRunning := s.isRunning.Swap(false)
	s.spawnMu.Unlock()
	if !wasRunning {
		return
	}

	s.logger.Info("actor system shutting down", "graceful", graceful, "actors", s.registry.count())

	for _, cell := range s.registry.snapshot() {
		if graceful {
			cell.drain()
		} else {
			cell.stop()
		}
	}

	if s.waitActors(timeout) {
		s.closeOnce.Do(func() {
			s.cancel()
			s.dispatcher.Shutdown()
		})
		s.logger.Info("actor system shutdown complete")
		return
	}

	s.logger.Warn("actor system shutdown timeout, forcing exit", "remaining", s.registry.count())
	for _, cell := range s.registry.snapshot() {
		cell.stop()
	}
	s.closeOnce.Do(func() {
		// 唤醒阻塞在有界邮箱上的发送者；卡住的处理函数不再等待
		s.cancel()
		go s.dispatcher.Shutdown()
	})
}

// waitActors 等待所有 Actor 终止
func (s *System) waitActors(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// ============== 内部回调 ==============

// handlePanic 处理 Actor 中的 panic
func (s *System) handlePanic(pid *PID, msg Message, r any, stack []byte) {
	if s.config.PanicHandler != nil {
		s.config.PanicHandler(pid, msg, r)
		return
	}
	s.logger.Error("panic in actor",
		"actor", pid.ID,
		"message", msg.Kind(),
		"error", r,
		"stack", string(stack))
}

// deadLetter 记录无法处理的消息
func (s *System) deadLetter(pid *PID, env *Envelope) {
	s.stats.deadLetters.Add(1)
	if s.config.EnableDeadLetterLogging {
		s.logger.Debug("dead letter",
			"message", env.Message.Kind(),
			"target", pid.ID,
			"sender", env.Sender)
	}
}

// cellTerminated Actor 终止后的清理
func (s *System) cellTerminated(cell *actorCell, cause error, dropped int) {
	s.registry.remove(cell)
	s.stats.terminated.Add(1)
	s.stats.retiredReceived.Add(cell.received.Load())
	s.stats.retiredProcessed.Add(cell.processed.Load())

	if cause != nil {
		s.stats.failures.Add(1)
		s.logger.Warn("actor terminated by failure", "actor", cell.pid.ID, "error", cause, "dropped", dropped)
	} else {
		s.logger.Debug("actor stopped", "actor", cell.pid.ID, "dropped", dropped)
	}
	s.wg.Done()
}

// Stats 获取统计信息
func (s *System) Stats() *SystemStats {
	// 先读 retired 再遍历存活的 cell，并发终止时可能少计，但不会重复计数
	received := s.stats.retiredReceived.Load()
	processed := s.stats.retiredProcessed.Load()

	var pending int64
	cells := s.registry.snapshot()
	for _, cell := range cells {
		if cell.life.Load() == lifeStopped {
			continue
		}
		received += cell.received.Load()
		processed += cell.processed.Load()
		pending += cell.mailbox.Len()
	}

	return &SystemStats{
		ID:            s.id,
		TotalActors:   int64(len(cells)),
		Spawned:       s.stats.spawned.Load(),
		Terminated:    s.stats.terminated.Load(),
		Failures:      s.stats.failures.Load(),
		TotalMessages: received,
		ProcessedMsgs: processed,
		Pending:       pending,
		DeadLetters:   s.stats.deadLetters.Load(),
		StartTime:     s.stats.startTime,
		Uptime:        time.Since(s.stats.startTime),
	}
}
