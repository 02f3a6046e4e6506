// Package config 加载 actorbench 的配置
//
// 加载顺序（后者覆盖前者）：默认值 → YAML 文件 → ACTORBENCH_ 环境变量。
// 环境变量用双下划线分隔层级，例如 ACTORBENCH_RUNTIME__MAILBOX_CAPACITY=1024。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/logging"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ACTORBENCH_"

// Config 完整配置
type Config struct {
	Runtime RuntimeConfig  `koanf:"runtime"`
	Bench   BenchConfig    `koanf:"bench"`
	Log     logging.Config `koanf:"log"`
}

// RuntimeConfig Actor 系统配置
type RuntimeConfig struct {
	Dispatcher      string        `koanf:"dispatcher"`       // default, shared
	Workers         int           `koanf:"workers"`          // 共享调度器 worker 数，0 为 GOMAXPROCS
	Throughput      int           `koanf:"throughput"`       // 单次调度处理的消息数
	MailboxCapacity int           `koanf:"mailbox_capacity"` // bounded 场景的邮箱容量
	Overflow        string        `koanf:"overflow"`         // block, fail
	SendTimeout     time.Duration `koanf:"send_timeout"`     // 阻塞发送的最长等待
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // 关闭时等待排空的时间
}

// BenchConfig 压测配置
type BenchConfig struct {
	Scenarios  []string      `koanf:"scenarios"`
	Actors     int           `koanf:"actors"`
	Iterations int           `koanf:"iterations"`
	Senders    int           `koanf:"senders"`
	Timeout    time.Duration `koanf:"timeout"` // 单个场景的超时
	Latency    bool          `koanf:"latency"` // 统计每条消息的处理耗时
}

// Default 默认配置
func Default() Config {
	return Config{
		Runtime: RuntimeConfig{
			Dispatcher:      "default",
			Throughput:      300,
			MailboxCapacity: 1_000_000,
			Overflow:        "block",
			ShutdownTimeout: 30 * time.Second,
		},
		Bench: BenchConfig{
			Scenarios:  []string{"tell-unbounded", "tell-bounded", "ask-unbounded", "ask-bounded", "actor-creation"},
			Actors:     100,
			Iterations: 1_000_000,
			Senders:    1,
			Timeout:    5 * time.Minute,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load 加载配置，path 为空时跳过配置文件
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envKey ACTORBENCH_RUNTIME__MAILBOX_CAPACITY -> runtime.mailbox_capacity
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate 检查配置，返回所有问题
func (c *Config) Validate() error {
	var errs []error

	if _, err := actor.ParseDispatcherType(c.Runtime.Dispatcher); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseOverflow(c.Runtime.Overflow); err != nil {
		errs = append(errs, err)
	}
	if c.Runtime.Workers < 0 {
		errs = append(errs, fmt.Errorf("runtime.workers must not be negative, got %d", c.Runtime.Workers))
	}
	if c.Runtime.Throughput <= 0 {
		errs = append(errs, fmt.Errorf("runtime.throughput must be positive, got %d", c.Runtime.Throughput))
	}
	if c.Runtime.MailboxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("runtime.mailbox_capacity must be positive, got %d", c.Runtime.MailboxCapacity))
	}
	if len(c.Bench.Scenarios) == 0 {
		errs = append(errs, errors.New("bench.scenarios must not be empty"))
	}
	if c.Bench.Actors <= 0 {
		errs = append(errs, fmt.Errorf("bench.actors must be positive, got %d", c.Bench.Actors))
	}
	if c.Bench.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("bench.iterations must be positive, got %d", c.Bench.Iterations))
	}
	if c.Bench.Senders <= 0 {
		errs = append(errs, fmt.Errorf("bench.senders must be positive, got %d", c.Bench.Senders))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ParseOverflow 解析溢出策略
func ParseOverflow(s string) (actor.OverflowPolicy, error) {
	switch s {
	case "", "block":
		return actor.OverflowBlock, nil
	case "fail":
		return actor.OverflowFail, nil
	default:
		return actor.OverflowBlock, fmt.Errorf("unknown overflow policy %q", s)
	}
}
