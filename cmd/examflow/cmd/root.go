package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/config"
	"github.com/jmcleod/examflow/gateway"
	"github.com/jmcleod/examflow/session"
	"github.com/jmcleod/examflow/storage"
	bboltstorage "github.com/jmcleod/examflow/storage/bbolt"
	"github.com/jmcleod/examflow/storage/memory"
	redisstorage "github.com/jmcleod/examflow/storage/redis"
)

const offlineAnnotation = "offline"

var errNotSignedIn = errors.New(`not signed in; run "examflow login"`)

var (
	configDir  string
	jsonOutput bool
)

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Store
	close   func() error
	metrics *prometheus.Registry
	gw      *gateway.Gateway
	client  *api.Client
	session *session.Store
}

var rt *runtime

var rootCmd = &cobra.Command{
	Use:   "examflow",
	Short: "examflow is a command-line client for the exam scheduling service",
	Long: `A command-line client to schedule exams, book rooms and follow notifications.
Sign in once with "examflow login"; the session is kept between runs.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	teardown()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: setup refers to rootCmd.
	rootCmd.PersistentPreRunE = setup

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configDir, "config-dir", config.DefaultDir(), "Directory holding config.yaml, .env and the session database")
	pf.String("base-url", "", "Base URL of the remote API (default http://localhost:8000/api)")
	pf.String("session-backend", "", "Where the session is kept: bbolt, redis or memory")
	pf.String("session-file", "", "Session database path for the bbolt backend")
	pf.Bool("debug", false, "Enable debug logging and request metrics")
	pf.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

var flagKeys = map[string]string{
	"base-url":        "base_url",
	"session-backend": "session_backend",
	"session-file":    "session_file",
	"debug":           "debug",
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[offlineAnnotation] == "true" {
		return nil
	}

	v, err := config.New(configDir)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	store, closeStore, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	if cfg.SessionPassphrase != "" {
		sealed, err := storage.NewSealedStore(store, cfg.SessionPassphrase)
		if err != nil {
			closeStore()
			return err
		}
		store = sealed
	}

	stderr := cmd.ErrOrStderr()
	reg := prometheus.NewRegistry()
	gw, err := gateway.New(cfg.BaseURL, store,
		gateway.WithLogger(logger),
		gateway.WithMetrics(reg),
		gateway.WithExpiryHandler(func() {
			fmt.Fprintln(stderr, `session expired; run "examflow login"`)
		}),
	)
	if err != nil {
		closeStore()
		return err
	}

	client := api.New(gw)
	sess, err := session.New(client.Auth, store,
		session.WithLogger(logger),
		session.WithExpirySource(gw),
	)
	if err != nil {
		closeStore()
		return err
	}
	sess.Restore()

	rt = &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		close:   closeStore,
		metrics: reg,
		gw:      gw,
		client:  client,
		session: sess,
	}
	logger.Debug("examflow: ready", "base_url", cfg.BaseURL, "backend", cfg.SessionBackend)
	return nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case config.BackendRedis:
		s, err := redisstorage.Dial(cmd.Context(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SessionFile), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		s, err := bboltstorage.NewStoreFromFile(cfg.SessionFile, &bbolt.Options{Timeout: 2 * time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session storage: %w", err)
		}
		return s, s.Close, nil
	}
}

// teardown reports request metrics at debug level and releases storage.
func teardown() {
	if rt == nil {
		return
	}
	if rt.cfg.Debug {
		logRequestMetrics(rt.logger, rt.metrics)
	}
	if err := rt.close(); err != nil {
		rt.logger.Warn("examflow: closing session storage failed", "error", err)
	}
	rt = nil
}

func logRequestMetrics(logger *slog.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		logger.Debug("examflow: gathering metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			logger.Debug("examflow: metric", attrs...)
		}
	}
}

// setupSignedIn is setup for command groups that only make sense signed in.
func setupSignedIn(cmd *cobra.Command, args []string) error {
	if err := setup(cmd, args); err != nil {
		return err
	}
	return requireSession()
}

// requireSession fails unless a user is signed in.
func requireSession() error {
	if !rt.session.Current().Authenticated() {
		return errNotSignedIn
	}
	return nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
