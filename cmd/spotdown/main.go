package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/async"
	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/boltdb"
	"github.com/alanbriolat/spotdown/internal/logging"
	"github.com/alanbriolat/spotdown/internal/metrics"
	"github.com/alanbriolat/spotdown/internal/session"
)

func main() {
	logger, err := logging.Build(logging.Options{})
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	logging.Install(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &environment{}
	app := newApp(env)
	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		err = <-result
	}
	if closeErr := env.Close(); closeErr != nil {
		err = multierror.Append(err, closeErr)
	}
	_ = zap.L().Sync()
	if err != nil {
		zap.L().Fatal(err.Error())
	}
}

func newApp(env *environment) *cli.App {
	return &cli.App{
		Name:  "spotdown",
		Usage: "look up and download music through a SpotDown server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   backend.DefaultBaseURL,
				Usage:   "SpotDown server base `URL`",
				EnvVars: []string{"SPOTDOWN_SERVER"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   defaultDataDir(),
				Usage:   "store preferences and history in `DIR`",
				EnvVars: []string{"SPOTDOWN_DATA_DIR"},
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Value:   session.DefaultConfig.PollInterval,
				Usage:   "time between progress requests",
				EnvVars: []string{"SPOTDOWN_POLL_INTERVAL"},
			},
			&cli.DurationFlag{
				Name:    "stall-timeout",
				Value:   session.DefaultConfig.StallTimeout,
				Usage:   "fail a download that makes no progress for this long (0 to wait forever)",
				EnvVars: []string{"SPOTDOWN_STALL_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve prometheus metrics on `ADDR` (e.g. :9090)",
				EnvVars: []string{"SPOTDOWN_METRICS_ADDR"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "log as JSON",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := logging.Build(logging.Options{Debug: c.Bool("debug"), JSON: c.Bool("log-json")})
			if err != nil {
				return fmt.Errorf("can't initialize zap logger: %w", err)
			}
			logging.Install(logger)
			c.Context = logging.WithLogger(c.Context, logger)
			return env.Setup(c)
		},
		Commands: []*cli.Command{
			infoCommand(env),
			downloadCommand(env),
			qualityCommand(env),
			settingsCommand(env),
			historyCommand(env),
		},
		HideHelpCommand: true,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "spotdown")
	}
	return ".spotdown"
}

// environment holds what the commands share.
type environment struct {
	client        *backend.Client
	dataDir       string
	pollInterval  time.Duration
	stallTimeout  time.Duration
	metricsServer *http.Server
}

func (e *environment) Setup(c *cli.Context) error {
	client, err := backend.NewClient(c.String("server"), &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}
	e.client = client
	e.dataDir = c.String("data-dir")
	e.pollInterval = c.Duration("poll-interval")
	e.stallTimeout = c.Duration("stall-timeout")
	if addr := c.String("metrics-addr"); addr != "" {
		return e.serveMetrics(addr)
	}
	return nil
}

func (e *environment) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	e.metricsServer = &http.Server{Addr: addr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zap.S().Named("metrics").Infof("serving metrics on %s", addr)
		if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Named("metrics").Errorf("metrics server failed: %v", err)
		}
	}()
	return nil
}

// Database returns the preference and history store. The file is only held open for each read or write, so other
// commands can use it while a download is being polled.
func (e *environment) Database() (boltdb.OnDemand, error) {
	if err := os.MkdirAll(e.dataDir, 0700); err != nil {
		return boltdb.OnDemand{}, fmt.Errorf("create data dir: %w", err)
	}
	return boltdb.OnDemand{Path: filepath.Join(e.dataDir, "spotdown.db")}, nil
}

func (e *environment) SessionConfig() (session.Config, error) {
	db, err := e.Database()
	if err != nil {
		return session.Config{}, err
	}
	config := session.DefaultConfig
	config.PollInterval = e.pollInterval
	config.StallTimeout = e.stallTimeout
	config.Preferences = db
	config.History = db
	return config, nil
}

// Close releases everything Setup acquired.
func (e *environment) Close() error {
	var result error
	if e.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.metricsServer.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	return result
}
