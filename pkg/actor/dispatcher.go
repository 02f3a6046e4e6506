package actor

import (
	"runtime"
	"sync"
)

// Dispatcher 把就绪的 Actor 处理任务交给执行单元
type Dispatcher interface {
	// Schedule 安排 fn 执行，不能阻塞调用方
	Schedule(fn func())
	// Shutdown 停止调度器，之后提交的任务仍会被执行
	Shutdown()
}

// newDispatcher 按配置创建调度器
func newDispatcher(typ DispatcherType, workers int) Dispatcher {
	switch typ {
	case DispatcherShared:
		return newPoolDispatcher(workers)
	default:
		return goroutineDispatcher{}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// goroutine 调度器
// ═══════════════════════════════════════════════════════════════════════════

// goroutineDispatcher 每次激活启动一个 goroutine
// Actor 空闲时不占用 goroutine，工作窃取由 Go 运行时完成
type goroutineDispatcher struct{}

func (goroutineDispatcher) Schedule(fn func()) {
	go fn()
}

func (goroutineDispatcher) Shutdown() {}

// ═══════════════════════════════════════════════════════════════════════════
// 共享 worker 池调度器
// ═══════════════════════════════════════════════════════════════════════════

// poolDispatcher 固定数量的 worker 从同一个运行队列取任务
//
// 注意：Receive 中同步 Ask 同一个池里的其他 Actor 时，
// 所有 worker 都可能在等待，导致无法推进。需要这种用法时使用 DispatcherDefault。
type poolDispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   taskQueue
	closed  bool
	workers int
	wg      sync.WaitGroup
}

func newPoolDispatcher(workers int) *poolDispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &poolDispatcher{workers: workers}
	d.cond = sync.NewCond(&d.mu)
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.loop()
	}
	return d
}

func (d *poolDispatcher) Schedule(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		// 关闭后仍有迟到的发送需要清理邮箱
		go fn()
		return
	}
	d.queue.push(fn)
	d.mu.Unlock()
	d.cond.Signal()
}

func (d *poolDispatcher) loop() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for d.queue.len() == 0 && !d.closed {
			d.cond.Wait()
		}
		if d.queue.len() == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue.pop()
		d.mu.Unlock()
		fn()
	}
}

// Shutdown 执行完已排队的任务后退出所有 worker
func (d *poolDispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
	d.wg.Wait()
}

// taskQueue 环形缓冲 FIFO，由 poolDispatcher.mu 保护
type taskQueue struct {
	buf   []func()
	head  int
	count int
}

func (q *taskQueue) len() int {
	return q.count
}

func (q *taskQueue) push(fn func()) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = fn
	q.count++
}

func (q *taskQueue) pop() func() {
	fn := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return fn
}

func (q *taskQueue) grow() {
	size := len(q.buf) * 2
	if size == 0 {
		size = 64
	}
	buf := make([]func(), size)
	for i := 0; i < q.count; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
