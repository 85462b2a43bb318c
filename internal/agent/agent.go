package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ossectail/internal/alerts"
	"ossectail/internal/config"
	"ossectail/internal/ingest"
	"ossectail/internal/metrics"
	"ossectail/internal/model"
	"ossectail/internal/normalize"
	"ossectail/internal/ossec"
	"ossectail/internal/publish"
	"ossectail/internal/rules"
	"ossectail/internal/storage"
)

type LineSource interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

type StoreFactory func(cfg config.StorageConfig) (storage.Store, error)

type SourceFactory func(path string, opts ingest.TailOptions, logger *slog.Logger) (LineSource, error)

func OpenTailer(path string, opts ingest.TailOptions, logger *slog.Logger) (LineSource, error) {
	t := ingest.NewTailer(path, opts, logger)
	if err := t.Open(); err != nil {
		return nil, err
	}
	return t, nil
}

type Option func(*Agent)

func WithStoreFactory(f StoreFactory) Option {
	return func(a *Agent) { a.openStore = f }
}

func WithSourceFactory(f SourceFactory) Option {
	return func(a *Agent) { a.openSource = f }
}

func WithPublisher(p publish.Publisher) Option {
	return func(a *Agent) { a.publisher = p }
}

func WithCounters(c *metrics.Counters) Option {
	return func(a *Agent) { a.counters = c }
}

func WithRecent(s *alerts.Store) Option {
	return func(a *Agent) { a.recent = s }
}

// Agent runs the tail → assemble → resolve → persist pipeline on a single
// goroutine and restarts it from the current end of file when a cycle
// fails.
type Agent struct {
	cfg        *config.Config
	logger     *slog.Logger
	loc        *time.Location
	counters   *metrics.Counters
	recent     *alerts.Store
	publisher  publish.Publisher
	openStore  StoreFactory
	openSource SourceFactory

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	loc, err := normalize.LoadLocation(cfg.Parser.Timezone)
	if err != nil {
		return nil, fmt.Errorf("parser.timezone: %w", err)
	}
	a := &Agent{
		cfg:        cfg,
		logger:     logger,
		loc:        loc,
		openStore:  storage.NewStore,
		openSource: OpenTailer,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.counters == nil {
		a.counters = metrics.NewCounters()
	}
	if a.recent == nil {
		a.recent = alerts.NewStore(cfg.Alerts.StoreLimit)
	}
	return a, nil
}

func (a *Agent) Counters() *metrics.Counters {
	return a.counters
}

func (a *Agent) Recent() *alerts.Store {
	return a.recent
}

// Start runs the agent in the background until Stop or ctx ends.
func (a *Agent) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	go func() {
		defer close(done)
		if err := a.Run(ctx); err != nil && a.logger != nil {
			a.logger.Error("agent stopped", "err", err)
		}
	}()
}

// Stop cancels a started agent and waits for it to exit. Any record still
// being assembled is dropped.
func (a *Agent) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run follows the configured file until ctx ends. Each failed cycle is
// logged and retried after the restart delay, re-seeking to end of file.
func (a *Agent) Run(ctx context.Context) error {
	opts := ingest.TailOptions{
		StartAtEnd: a.cfg.Tail.StartAtEnd,
		MinDelay:   a.cfg.Tail.MinDelay,
		MaxDelay:   a.cfg.Tail.MaxDelay,
		Step:       a.cfg.Tail.Step,
	}
	for {
		err := a.cycle(ctx, a.cfg.Tail.Path, opts)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		a.counters.CycleFailed(err)
		if a.logger != nil {
			a.logger.Error("ingest cycle failed, restarting", "err", err, "delay", a.cfg.Supervisor.RestartDelay)
		}
		if !ingest.BackoffSleep(ctx, a.cfg.Supervisor.RestartDelay) {
			return nil
		}
	}
}

// Import reads path from the beginning to end of file once, persisting
// every record including the last one.
func (a *Agent) Import(ctx context.Context, path string) error {
	return a.cycle(ctx, path, ingest.TailOptions{StopAtEOF: true})
}

func (a *Agent) cycle(ctx context.Context, path string, opts ingest.TailOptions) error {
	a.counters.CycleStarted()
	store, err := a.openStore(a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	if a.cfg.Storage.InitSchema {
		if err := store.Init(ctx); err != nil {
			return err
		}
	}
	src, err := a.openSource(path, opts, a.logger)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	resolver := rules.NewResolver(store, a.counters, a.logger)
	asm := ossec.NewAssembler(resolver, ossec.Options{ConcatMessage: a.cfg.Parser.ConcatMessage}, a.counters, a.logger)
	if a.logger != nil {
		a.logger.Info("ingest cycle started", "path", path, "driver", a.cfg.Storage.Driver)
	}
	return a.consume(ctx, store, src, asm)
}

func (a *Agent) consume(ctx context.Context, store storage.Store, src LineSource, asm *ossec.Assembler) error {
	for {
		line, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if rec, ok := asm.Flush(); ok {
					a.persist(ctx, store, rec)
				}
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}
		a.counters.LineRead()
		if rec, ok := asm.Process(ctx, line); ok {
			a.persist(ctx, store, rec)
		}
	}
}

// persist never returns an error: a record that cannot be written is
// logged and dropped so the tail keeps moving.
func (a *Agent) persist(ctx context.Context, store storage.Store, rec model.AlertRecord) {
	a.counters.RecordCompleted()
	if a.cfg.Storage.ResolveHosts && !rec.HostID.IsSet() {
		a.resolveHost(ctx, store, &rec)
	}
	alert := normalize.Normalize(rec, a.loc)
	if err := store.SaveAlert(ctx, alert); err != nil {
		a.counters.AlertDropped(err)
		if a.logger != nil {
			a.logger.Error("alert dropped", "ossec_id", rec.ID, "err", err)
		}
		return
	}
	a.counters.AlertSaved()
	a.recent.Add(alert)
	if a.logger != nil {
		a.logger.Debug("alert saved", "ossec_id", alert.OSSECID, "rule_id", alert.RuleID, "src_ip", alert.SrcIP)
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, alert); err != nil {
			a.counters.PublishFailed(err)
			if a.logger != nil {
				a.logger.Warn("alert publish failed", "ossec_id", alert.OSSECID, "err", err)
			}
		}
	}
}

func (a *Agent) resolveHost(ctx context.Context, store storage.Store, rec *model.AlertRecord) {
	desc, _ := rec.LogDescriptor.Get()
	name := ossec.HostName(desc)
	if name == "" {
		return
	}
	id, ok, err := store.LookupHost(ctx, name)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("host lookup failed", "host", name, "err", err)
		}
		return
	}
	if ok {
		rec.HostID = model.Some(id)
	}
}
