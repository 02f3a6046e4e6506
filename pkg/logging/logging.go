// Package logging 构建运行时使用的 *slog.Logger
//
// 日志由 zap 输出，可以写到标准输出、标准错误或按大小轮转的文件。
// actor 包只依赖 log/slog，这里通过 zapslog 把两者接起来。
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level     string `koanf:"level"`      // debug, info, warn, error
	Format    string `koanf:"format"`     // json, console
	Output    string `koanf:"output"`     // stdout, stderr 或文件路径
	AddCaller bool   `koanf:"add_caller"` // 是否记录调用位置

	// 以下只对文件输出生效
	MaxSize    int  `koanf:"max_size"`    // MB
	MaxBackups int  `koanf:"max_backups"` // 保留的旧文件数
	MaxAge     int  `koanf:"max_age"`     // 天
	Compress   bool `koanf:"compress"`    // 是否压缩旧文件
}

// DefaultConfig 默认配置：info 级别、控制台格式、输出到标准错误
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     30,
	}
}

// Logger 带有底层 zap 输出的 slog 日志器
type Logger struct {
	*slog.Logger

	zap    *zap.Logger
	closer io.Closer
}

// New 按配置创建日志器
func New(cfg Config) (*Logger, error) {
	ws, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	core, err := newCore(cfg, ws)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	return newLogger(core, cfg.AddCaller, closer), nil
}

// NewWithWriter 输出到指定 writer，主要用于测试
func NewWithWriter(cfg Config, w io.Writer) (*Logger, error) {
	core, err := newCore(cfg, zapcore.AddSync(w))
	if err != nil {
		return nil, err
	}
	return newLogger(core, cfg.AddCaller, nil), nil
}

func newLogger(core zapcore.Core, addCaller bool, closer io.Closer) *Logger {
	opts := []zap.Option{}
	if addCaller {
		opts = append(opts, zap.AddCaller())
	}
	return &Logger{
		Logger: slog.New(zapslog.NewHandler(core, zapslog.WithCaller(addCaller))),
		zap:    zap.New(core, opts...),
		closer: closer,
	}
}

// Close 刷新缓冲并关闭日志文件
func (l *Logger) Close() error {
	// 标准输出在部分平台上不支持 Sync，忽略其错误
	_ = l.zap.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// ParseLevel 解析日志级别，空字符串为 info
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newCore(cfg Config, ws zapcore.WriteSyncer) (zapcore.Core, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	return zapcore.NewCore(encoder, ws, level), nil
}

func openOutput(cfg Config) (zapcore.WriteSyncer, io.Closer, error) {
	switch cfg.Output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil, nil
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if writer.MaxSize == 0 {
		writer.MaxSize = 100
	}
	return zapcore.AddSync(writer), writer, nil
}
