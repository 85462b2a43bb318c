// Command ossectail follows the OSSEC alerts log and stores each alert in
// the HECTOR database.
//
//	ossectail [flags] run            follow the log until SIGINT/SIGTERM
//	ossectail [flags] import FILE    load an existing log once and exit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"ossectail/internal/agent"
	"ossectail/internal/api"
	"ossectail/internal/config"
	"ossectail/internal/logging"
	"ossectail/internal/metrics"
	"ossectail/internal/publish"
)

var version = "dev"

func main() {
	configPath := flag.StringP("config", "c", "", "path to YAML config (defaults apply when empty)")
	logLevel := flag.String("log-level", "", "override log_level from the config")
	tailPath := flag.String("file", "", "override tail.path from the config")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ossectail: config: %v\n", err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *tailPath != "" {
		cfg.Tail.Path = *tailPath
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "run"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	switch cmd {
	case "run":
		err = run(ctx, cfg, logger)
	case "import":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		err = runImport(ctx, cfg, logger, flag.Arg(1))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("ossectail exited", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

func newAgent(cfg *config.Config, logger *slog.Logger) (*agent.Agent, publish.Publisher, error) {
	counters := metrics.NewCounters()
	publisher := publish.New(cfg.Publish, func(err error) {
		counters.PublishFailed(err)
		logger.Warn("alert delivery failed", "err", err)
	})
	opts := []agent.Option{agent.WithCounters(counters)}
	if publisher != nil {
		opts = append(opts, agent.WithPublisher(publisher))
	}
	a, err := agent.New(cfg, logger, opts...)
	if err != nil {
		if publisher != nil {
			_ = publisher.Close()
		}
		return nil, nil, err
	}
	return a, publisher, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, publisher, err := newAgent(cfg, logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}
	api.Start(ctx, api.NewServer(cfg, a.Counters(), a.Recent(), logger, version))
	logger.Info("ossectail starting", "version", version, "path", cfg.Tail.Path, "driver", cfg.Storage.Driver)
	a.Start(ctx)
	<-ctx.Done()
	a.Stop()
	logger.Info("ossectail stopped", "counters", a.Counters().Snapshot())
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) error {
	a, publisher, err := newAgent(cfg, logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}
	if err := a.Import(ctx, path); err != nil {
		return err
	}
	snap := a.Counters().Snapshot()
	logger.Info("import finished", "path", path, "saved", snap.AlertsSaved, "dropped", snap.AlertsDropped, "rules_created", snap.RulesCreated)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] run|import FILE\n", os.Args[0])
	flag.PrintDefaults()
}
