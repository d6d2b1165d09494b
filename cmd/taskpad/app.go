package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/GoCodeAlone/taskpad/actions"
	"github.com/GoCodeAlone/taskpad/config"
	"github.com/GoCodeAlone/taskpad/events"
	"github.com/GoCodeAlone/taskpad/generator"
	"github.com/GoCodeAlone/taskpad/provider"
	"github.com/GoCodeAlone/taskpad/provider/mock"
	"github.com/GoCodeAlone/taskpad/task"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *actions.Service
	store  *task.Store
	bus    *events.InMemoryBus

	closers []io.Closer
}

func openApp(ctx context.Context, flags *globalFlags, stderr io.Writer) (*app, error) {
	path := flags.configPath
	if path == "" {
		path = os.Getenv("TASKPAD_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.storage != "" {
		cfg.Storage.Driver = flags.storage
	}
	if flags.path != "" {
		cfg.Storage.Path = flags.path
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a := &app{cfg: cfg, logger: logger, bus: events.NewInMemoryBus()}

	backend, err := a.openBackend()
	if err != nil {
		// The store degrades to memory on its own when storage misbehaves
		// later; an unusable location up front is handled the same way.
		logger.Warn("task storage unavailable, continuing in memory",
			slog.String("driver", cfg.Storage.Driver),
			slog.Any("err", err),
		)
		backend = task.NewMemoryBackend()
	}

	if flags.verbose {
		a.bus.Subscribe(events.AllTasks, func(_ context.Context, evt *events.Event) error {
			_, err := fmt.Fprintln(stderr, formatEvent(evt))
			return err
		})
	}

	a.store = task.NewStore(ctx, backend, task.Options{
		Latency: cfg.Store.Latency,
		Logger:  logger,
		Bus:     a.bus,
	})

	p, err := newProvider(cfg.Generator)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	gen := generator.NewProviderGenerator(p, generator.Options{
		Timeout: cfg.Generator.Timeout,
		Logger:  logger,
	})

	a.svc = actions.NewService(a.store, gen, logger)
	return a, nil
}

func (a *app) openBackend() (task.Backend, error) {
	switch a.cfg.Storage.Driver {
	case "memory":
		return task.NewMemoryBackend(), nil
	case "file":
		return task.NewFileBackend(a.cfg.Storage.Path, task.FileFormat(a.cfg.Storage.Format))
	default:
		b, err := task.NewSQLiteBackend(a.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b)
		return b, nil
	}
}

// Close releases storage handles.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newProvider(cfg config.GeneratorConfig) (provider.Provider, error) {
	reg := provider.NewRegistry()
	if err := reg.Register("mock", func(provider.Settings) (provider.Provider, error) {
		return mock.New(cfg.MockResponses...), nil
	}); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		switch cfg.Provider {
		case "anthropic":
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return reg.New(provider.Settings{
		Type:    cfg.Provider,
		APIKey:  apiKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
}

func formatEvent(evt *events.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "event %s task=%s", evt.Kind, evt.TaskID)
	for _, k := range slices.Sorted(maps.Keys(evt.Detail)) {
		fmt.Fprintf(&b, " %s=%s", k, evt.Detail[k])
	}
	return b.String()
}
