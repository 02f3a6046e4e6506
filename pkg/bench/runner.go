package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
)

// Scenario 压测场景
type Scenario string

const (
	TellUnbounded Scenario = "tell-unbounded"
	TellBounded   Scenario = "tell-bounded"
	AskUnbounded  Scenario = "ask-unbounded"
	AskBounded    Scenario = "ask-bounded"
	ActorCreation Scenario = "actor-creation"
)

// AllScenarios 所有场景，按默认执行顺序
func AllScenarios() []Scenario {
	return []Scenario{TellUnbounded, TellBounded, AskUnbounded, AskBounded, ActorCreation}
}

// ParseScenario 解析场景名称
func ParseScenario(s string) (Scenario, error) {
	for _, sc := range AllScenarios() {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

// ParseScenarios 解析场景列表，"all" 展开为所有场景
func ParseScenarios(names []string) ([]Scenario, error) {
	var out []Scenario
	for _, name := range names {
		if name == "all" {
			out = append(out, AllScenarios()...)
			continue
		}
		sc, err := ParseScenario(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s Scenario) bounded() bool {
	return s == TellBounded || s == AskBounded
}

// Options 压测参数
type Options struct {
	// Actor 系统
	Dispatcher      actor.DispatcherType
	Workers         int
	Throughput      int
	MailboxCapacity int
	Overflow        actor.OverflowPolicy
	SendTimeout     time.Duration
	ShutdownTimeout time.Duration

	// 负载
	Actors     int
	Iterations int
	Senders    int
	Timeout    time.Duration

	// Latency 用 actor.StatsActor 包装计数器，在结果中汇总处理耗时
	Latency bool

	Logger *slog.Logger
}

// DefaultOptions 默认参数：100 个 Actor，100 万次操作
func DefaultOptions() Options {
	return Options{
		Dispatcher:      actor.DispatcherDefault,
		Throughput:      300,
		MailboxCapacity: 1_000_000,
		Overflow:        actor.OverflowBlock,
		ShutdownTimeout: 30 * time.Second,
		Actors:          100,
		Iterations:      1_000_000,
		Senders:         1,
		Timeout:         5 * time.Minute,
	}
}

// Result 单个场景的结果
type Result struct {
	RunID      string        `json:"run_id"`
	Scenario   Scenario      `json:"scenario"`
	Dispatcher string        `json:"dispatcher"`
	Actors     int           `json:"actors"`
	Iterations int           `json:"iterations"`
	Dropped    int64         `json:"dropped"`
	Elapsed    time.Duration `json:"elapsed"`
	PerOp      time.Duration `json:"per_op"`
	OpsPerSec  float64       `json:"ops_per_sec"`

	// 仅在 Options.Latency 开启时填充
	AvgLatency time.Duration `json:"avg_latency,omitempty"`
	MaxLatency time.Duration `json:"max_latency,omitempty"`
}

// Runner 按顺序执行压测场景，每个场景使用独立的 System
type Runner struct {
	opts   Options
	runID  string
	logger *slog.Logger
}

// NewRunner 创建 Runner
func NewRunner(opts Options) *Runner {
	if opts.Actors <= 0 {
		opts.Actors = 1
	}
	if opts.Senders <= 0 {
		opts.Senders = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Runner{
		opts:   opts,
		runID:  runID,
		logger: logger.With("run_id", runID),
	}
}

// RunID 本次运行的 ID
func (r *Runner) RunID() string {
	return r.runID
}

// Run 依次执行场景，遇到错误立即返回已完成的结果
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := r.RunScenario(ctx, sc)
		if err != nil {
			if actor.IsContextError(err) {
				r.logger.Warn("scenario interrupted", "scenario", string(sc), "error", err)
			}
			return results, fmt.Errorf("scenario %s: %w", sc, err)
		}
		r.logger.Info("scenario finished",
			"scenario", string(sc),
			"iterations", res.Iterations,
			"elapsed", res.Elapsed,
			"per_op", res.PerOp,
			"ops_per_sec", int64(res.OpsPerSec))
		results = append(results, res)
	}
	return results, nil
}

// RunScenario 执行单个场景
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) (Result, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	sys := actor.NewSystemWithConfig("bench-"+string(sc), r.systemConfig(sc))
	defer sys.ShutdownNow()

	r.logger.Debug("scenario starting", "scenario", string(sc), "system_id", sys.ID())

	var (
		elapsed time.Duration
		dropped int64
		err     error
		w       = &workload{}
	)
	switch sc {
	case TellUnbounded, TellBounded:
		elapsed, dropped, err = r.runTell(ctx, sys, w)
	case AskUnbounded, AskBounded:
		elapsed, err = r.runAsk(ctx, sys, w)
	case ActorCreation:
		elapsed, err = r.runCreation(ctx, sys)
	default:
		err = fmt.Errorf("unknown scenario %q", sc)
	}
	if err != nil {
		return Result{}, err
	}

	res := newResult(r.runID, sc, r.opts, elapsed, dropped)
	if len(w.stats) > 0 {
		latency := w.latency()
		res.AvgLatency = latency.AvgLatency()
		res.MaxLatency = latency.MaxLatency
	}
	return res, nil
}

func newResult(runID string, sc Scenario, opts Options, elapsed time.Duration, dropped int64) Result {
	res := Result{
		RunID:      runID,
		Scenario:   sc,
		Dispatcher: opts.Dispatcher.String(),
		Actors:     opts.Actors,
		Iterations: opts.Iterations,
		Dropped:    dropped,
		Elapsed:    elapsed,
	}
	if sc == ActorCreation {
		res.Actors = opts.Iterations
	}
	if opts.Iterations > 0 {
		res.PerOp = elapsed / time.Duration(opts.Iterations)
	}
	if elapsed > 0 {
		res.OpsPerSec = float64(opts.Iterations) / elapsed.Seconds()
	}
	return res
}

func (r *Runner) systemConfig(sc Scenario) *actor.SystemConfig {
	cfg := actor.DefaultSystemConfig()
	cfg.Dispatcher = r.opts.Dispatcher
	cfg.Workers = r.opts.Workers
	if r.opts.Throughput > 0 {
		cfg.Throughput = r.opts.Throughput
	}
	if r.opts.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = r.opts.ShutdownTimeout
	}
	cfg.EnableDeadLetterLogging = false
	cfg.Logger = r.logger

	if sc.bounded() {
		cfg.DefaultMailbox = actor.MailboxConfig{
			Capacity:    r.opts.MailboxCapacity,
			Overflow:    r.opts.Overflow,
			SendTimeout: r.opts.SendTimeout,
		}
	}
	return cfg
}

// workload 一个场景中的计数器
type workload struct {
	pids  []*actor.PID
	stats []*actor.StatsActor
}

// latency 汇总所有计数器的处理耗时
func (w *workload) latency() actor.ActorStats {
	var total actor.ActorStats
	for _, s := range w.stats {
		total.Merge(s.Stats())
	}
	return total
}

// spawnCounters 创建计数器并用 Inc{0} 预热，确保每个 Actor 已经启动
// 预热使用 AskWait，不受 OverflowFail 影响
func (r *Runner) spawnCounters(ctx context.Context, sys *actor.System, w *workload) error {
	w.pids = make([]*actor.PID, r.opts.Actors)
	for i := range w.pids {
		var a actor.Actor = &Counter{}
		if r.opts.Latency {
			sa := actor.NewStatsActor(a)
			w.stats = append(w.stats, sa)
			a = sa
		}
		pid, err := sys.Spawn(a, fmt.Sprintf("counter-%d", i))
		if err != nil {
			return err
		}
		if _, err := actor.AskWait[*Count](ctx, pid, &Inc{Amount: 0}); err != nil {
			return fmt.Errorf("warm up %s: %w", pid.ID, err)
		}
		w.pids[i] = pid
	}
	return nil
}

// burst 把 Iterations 次操作按轮询分给各个 Actor，由 Senders 个 goroutine 并发执行
// 发送者 s 负责 i%Senders == s 的操作
func (r *Runner) burst(ctx context.Context, pids []*actor.PID, op func(ctx context.Context, pid *actor.PID) error) error {
	g, gctx := errgroup.WithContext(ctx)
	senders := r.opts.Senders
	for s := 0; s < senders; s++ {
		g.Go(func() error {
			for i := s; i < r.opts.Iterations; i += senders {
				if err := op(gctx, pids[i%len(pids)]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// drain 逐个 Ask 当前计数，返回总和
// 突发之后邮箱可能仍是满的，屏障请求必须等待空位而不是按 OverflowFail 丢弃
func drain(ctx context.Context, pids []*actor.PID) (int64, error) {
	var total int64
	for _, pid := range pids {
		c, err := actor.AskWait[*Count](ctx, pid, &Get{})
		if err != nil {
			return 0, fmt.Errorf("drain %s: %w", pid.ID, err)
		}
		total += c.Value
	}
	return total, nil
}

func (r *Runner) runTell(ctx context.Context, sys *actor.System, w *workload) (time.Duration, int64, error) {
	if err := r.spawnCounters(ctx, sys, w); err != nil {
		return 0, 0, err
	}
	pids := w.pids

	inc := &Inc{Amount: 1}
	var dropped atomic.Int64

	start := time.Now()
	err := r.burst(ctx, pids, func(ctx context.Context, pid *actor.PID) error {
		err := pid.TellContext(ctx, inc)
		if errors.Is(err, actor.ErrMailboxFull) {
			dropped.Add(1)
			return nil
		}
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	total, err := drain(ctx, pids)
	elapsed := time.Since(start)
	if err != nil {
		return 0, 0, err
	}

	if want := int64(r.opts.Iterations) - dropped.Load(); total != want {
		return 0, 0, fmt.Errorf("count mismatch: got %d, want %d", total, want)
	}
	return elapsed, dropped.Load(), nil
}

func (r *Runner) runAsk(ctx context.Context, sys *actor.System, w *workload) (time.Duration, error) {
	if err := r.spawnCounters(ctx, sys, w); err != nil {
		return 0, err
	}
	pids := w.pids

	inc := &Inc{Amount: 1}
	start := time.Now()
	err := r.burst(ctx, pids, func(ctx context.Context, pid *actor.PID) error {
		_, err := actor.Ask[*Count](ctx, pid, inc)
		return err
	})
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}

	total, err := drain(ctx, pids)
	if err != nil {
		return 0, err
	}
	if total != int64(r.opts.Iterations) {
		return 0, fmt.Errorf("count mismatch: got %d, want %d", total, r.opts.Iterations)
	}
	return elapsed, nil
}

func (r *Runner) runCreation(ctx context.Context, sys *actor.System) (time.Duration, error) {
	start := time.Now()
	for i := 0; i < r.opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := sys.Spawn(&Counter{}, ""); err != nil {
			return 0, err
		}
	}
	elapsed := time.Since(start)

	if n := sys.Count(); n != r.opts.Iterations {
		return 0, fmt.Errorf("actor count mismatch: got %d, want %d", n, r.opts.Iterations)
	}
	return elapsed, nil
}

// WriteTable 以表格形式输出结果
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tDISPATCHER\tACTORS\tITERATIONS\tDROPPED\tELAPSED\tPER OP\tOPS/SEC\tAVG LATENCY\tMAX LATENCY")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%.0f\t%s\t%s\n",
			res.Scenario, res.Dispatcher, res.Actors, res.Iterations, res.Dropped,
			res.Elapsed.Round(time.Microsecond), res.PerOp, res.OpsPerSec,
			latencyCell(res.AvgLatency), latencyCell(res.MaxLatency))
	}
	return tw.Flush()
}

func latencyCell(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.String()
}
