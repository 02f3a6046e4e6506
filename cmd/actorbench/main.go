// actorbench 对 Actor 运行时执行吞吐量压测
//
//	actorbench --scenario tell-unbounded --scenario ask-bounded --actors 100 --iterations 1000000
//	actorbench --config actorbench.yaml --dispatcher shared --output json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/bench"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/config"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "actorbench:", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "actorbench",
		Usage: "benchmark the in-process actor runtime",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringSliceFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "scenario to run (repeatable, or \"all\")"},
			&cli.IntFlag{Name: "actors", Usage: "number of counter actors"},
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "operations per scenario"},
			&cli.IntFlag{Name: "senders", Usage: "concurrent sender goroutines"},
			&cli.StringFlag{Name: "dispatcher", Usage: "default or shared"},
			&cli.IntFlag{Name: "workers", Usage: "shared dispatcher workers (0 = GOMAXPROCS)"},
			&cli.IntFlag{Name: "throughput", Usage: "messages per activation before yielding"},
			&cli.IntFlag{Name: "capacity", Usage: "bounded mailbox capacity"},
			&cli.StringFlag{Name: "overflow", Usage: "bounded mailbox overflow policy: block or fail"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-scenario timeout"},
			&cli.BoolFlag{Name: "latency", Usage: "record per-message handling latency"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "table", Usage: "table or json"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, out)
		},
		Commands: []*cli.Command{
			{
				Name:  "scenarios",
				Usage: "list available scenarios",
				Action: func(_ context.Context, _ *cli.Command) error {
					for _, sc := range bench.AllScenarios() {
						fmt.Fprintln(out, sc)
					}
					return nil
				},
			},
		},
	}
}

func run(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Close()

	opts, scenarios, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger.Logger

	runner := bench.NewRunner(opts)
	logger.Info("benchmark starting",
		"run_id", runner.RunID(),
		"scenarios", len(scenarios),
		"actors", opts.Actors,
		"iterations", opts.Iterations,
		"dispatcher", opts.Dispatcher.String())

	results, runErr := runner.Run(ctx, scenarios)
	if err := writeResults(out, cmd.String("output"), results); err != nil {
		return err
	}
	return runErr
}

// applyFlags 命令行参数覆盖配置
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("scenario") {
		cfg.Bench.Scenarios = cmd.StringSlice("scenario")
	}
	if cmd.IsSet("actors") {
		cfg.Bench.Actors = cmd.Int("actors")
	}
	if cmd.IsSet("iterations") {
		cfg.Bench.Iterations = cmd.Int("iterations")
	}
	if cmd.IsSet("senders") {
		cfg.Bench.Senders = cmd.Int("senders")
	}
	if cmd.IsSet("timeout") {
		cfg.Bench.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("latency") {
		cfg.Bench.Latency = cmd.Bool("latency")
	}
	if cmd.IsSet("dispatcher") {
		cfg.Runtime.Dispatcher = cmd.String("dispatcher")
	}
	if cmd.IsSet("workers") {
		cfg.Runtime.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("throughput") {
		cfg.Runtime.Throughput = cmd.Int("throughput")
	}
	if cmd.IsSet("capacity") {
		cfg.Runtime.MailboxCapacity = cmd.Int("capacity")
	}
	if cmd.IsSet("overflow") {
		cfg.Runtime.Overflow = cmd.String("overflow")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
}

// buildOptions 把已校验的配置转换为压测参数
func buildOptions(cfg *config.Config) (bench.Options, []bench.Scenario, error) {
	scenarios, err := bench.ParseScenarios(cfg.Bench.Scenarios)
	if err != nil {
		return bench.Options{}, nil, err
	}
	dispatcher, err := actor.ParseDispatcherType(cfg.Runtime.Dispatcher)
	if err != nil {
		return bench.Options{}, nil, err
	}
	overflow, err := config.ParseOverflow(cfg.Runtime.Overflow)
	if err != nil {
		return bench.Options{}, nil, err
	}

	return bench.Options{
		Dispatcher:      dispatcher,
		Workers:         cfg.Runtime.Workers,
		Throughput:      cfg.Runtime.Throughput,
		MailboxCapacity: cfg.Runtime.MailboxCapacity,
		Overflow:        overflow,
		SendTimeout:     cfg.Runtime.SendTimeout,
		ShutdownTimeout: cfg.Runtime.ShutdownTimeout,
		Actors:          cfg.Bench.Actors,
		Iterations:      cfg.Bench.Iterations,
		Senders:         cfg.Bench.Senders,
		Timeout:         cfg.Bench.Timeout,
		Latency:         cfg.Bench.Latency,
	}, scenarios, nil
}

func writeResults(out io.Writer, format string, results []bench.Result) error {
	switch format {
	case "", "table":
		return bench.WriteTable(out, results)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
