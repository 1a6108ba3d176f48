package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/erazemk/lostfound/internal/blob"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
)

// commonOptions are accepted by every command.
type commonOptions struct {
	configPath string
	dbPath     string
	logPath    string
	yes        bool
}

func (o *commonOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "config file")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database path")
	fs.StringVarP(&o.logPath, "log", "l", "", "log file path")
	fs.BoolVarP(&o.yes, "yes", "y", false, "answer yes to every confirmation")
}

// app is the opened state shared by the commands.
type app struct {
	cfg     *config.Config
	adapter kv.Adapter
	engine  *lifecycle.Engine
	metrics *metrics.Recorder

	in  *bufio.Reader
	out io.Writer

	closeLog func()
}

func openApp(ctx context.Context, opts commonOptions, level slog.Level, stdin io.Reader, stdout io.Writer, server bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.Storage.Driver = kv.DriverSQLite
		cfg.Storage.Path = opts.dbPath
	}
	if opts.logPath != "" {
		cfg.Log.Path = opts.logPath
	}

	closeLog, err := setupLogger(cfg.Log.Path, level)
	if err != nil {
		return nil, err
	}

	adapter, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	a := &app{
		cfg:      cfg,
		adapter:  adapter,
		in:       bufio.NewReader(stdin),
		out:      stdout,
		closeLog: closeLog,
	}

	engineOpts := []lifecycle.Option{
		lifecycle.WithLogger(slog.Default()),
		lifecycle.WithBcryptCost(cfg.Auth.BcryptCost),
	}
	switch {
	case server:
		// HTTP clients confirm on their side.
		a.metrics = metrics.NewRecorder()
		engineOpts = append(engineOpts, lifecycle.WithObserver(a.metrics))
	case !opts.yes:
		engineOpts = append(engineOpts, lifecycle.WithConfirmer(lifecycle.ConfirmFunc(a.confirm)))
	}

	a.engine = lifecycle.New(adapter, engineOpts...)
	if err := a.engine.Load(ctx); err != nil {
		slog.Warn("could not load saved state, starting empty", "error", err)
	}
	return a, nil
}

// Close releases the storage and the log file.
func (a *app) Close() {
	if err := a.adapter.Close(); err != nil {
		slog.Error("closing storage", "error", err)
	}
	a.closeLog()
}

// confirm asks on stdin. Anything but y or yes declines.
func (a *app) confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// images opens the configured image store.
func (a *app) images(ctx context.Context) (blob.Store, error) {
	s, err := blob.Open(ctx, a.cfg.Blob())
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	return s, nil
}

// settle turns a persistence failure into a warning: the command's change
// was applied but could not be saved.
func settle(err error) error {
	if errors.Is(err, model.ErrPersistence) {
		slog.Warn("change applied but not saved", "error", err)
		return nil
	}
	return err
}
