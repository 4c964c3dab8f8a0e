// Command cachecast is a small CLI over the cachecast client: read and write
// keys, publish to channels and tail subscriptions against a Redis endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachecast"
	asynchook "github.com/unkn0wn-root/cachecast/hooks/async"
	zaplog "github.com/unkn0wn-root/cachecast/log/zap"
	"github.com/unkn0wn-root/cachecast/sloghooks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := a.close(context.WithoutCancel(ctx)); err == nil {
		err = cerr
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

type app struct {
	cfg    config
	logger *zap.Logger
	hooks  *asynchook.Hooks
	client cachecast.Client
}

// newRootCmd returns the command tree and the app it opens. The caller closes
// the app after Execute, whether or not the command failed.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	cfg, cfgErr := loadConfig(nil)
	a.cfg = cfg

	root := &cobra.Command{
		Use:           "cachecast",
		Short:         "Key/value and pub/sub over Redis",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			return a.open(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfg.URI, "uri", "u", a.cfg.URI, "Redis URI or host:port (CACHECAST_URI)")
	pf.StringVarP(&a.cfg.Namespace, "namespace", "n", a.cfg.Namespace, "key and channel prefix (CACHECAST_NAMESPACE)")
	pf.DurationVarP(&a.cfg.Timeout, "timeout", "t", a.cfg.Timeout, "per-call timeout (CACHECAST_TIMEOUT)")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error (CACHECAST_LOG_LEVEL)")
	pf.BoolVar(&a.cfg.Tracing, "tracing", a.cfg.Tracing, "instrument redis calls with OpenTelemetry (CACHECAST_TRACING)")

	root.AddCommand(
		newGetCmd(a),
		newSetCmd(a),
		newDelCmd(a),
		newPublishCmd(a),
		newSubscribeCmd(a),
		newBroadcastCmd(a),
	)
	return root, a
}

func (a *app) open(ctx context.Context) error {
	logger, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger

	// Hook events at warn and above go to stderr as slog JSON, off the command path.
	events := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a.hooks = asynchook.New(sloghooks.New(events, sloghooks.Options{}), 1, 64)

	c, err := cachecast.Connect(ctx, a.cfg.URI, cachecast.Options{
		Logger:    zaplog.ZapLogger{L: logger},
		Hooks:     a.hooks,
		Namespace: a.cfg.Namespace,
		Timeout:   a.cfg.Timeout,
		Tracing:   a.cfg.Tracing,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	a.client = c
	return nil
}

func (a *app) close(ctx context.Context) error {
	var err error
	if a.client != nil {
		err = a.client.Close(ctx)
		a.client = nil
	}
	if a.hooks != nil {
		a.hooks.Close()
		a.hooks = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}
