// Package cli implements the agent-pipeline CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/agent-pipeline/internal/action"
	"github.com/rcliao/agent-pipeline/internal/config"
	"github.com/rcliao/agent-pipeline/internal/decision"
	"github.com/rcliao/agent-pipeline/internal/perception"
	"github.com/rcliao/agent-pipeline/internal/pipeline"
	"github.com/rcliao/agent-pipeline/internal/reasoning"
	"github.com/rcliao/agent-pipeline/internal/store"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-pipeline",
	Short: "Perception, memory, decision and action for one input at a time",
	Long: `Runs inputs through a four-stage agent pipeline: the input is analyzed,
remembered in SQLite, matched against past memories, turned into a decision
over the registered actions, and the chosen action is executed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and flushes the logger on every exit path,
// including commands that return an error.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENT_PIPELINE_DB or ~/.agent-pipeline/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// newLogger builds a production logger writing to stderr so stdout stays JSON.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath, logger.Named("store"))
}

// buildAgent wires the reasoning backend, the four stages and the built-in
// actions over s.
func buildAgent(ctx context.Context, s *store.SQLiteStore) (*pipeline.Agent, error) {
	svc, modelName, err := reasoning.New(ctx, reasoning.Options{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  cfg.Timeouts.Reasoning.Duration,
	})
	if err != nil {
		// Runs still complete without a backend; every stage takes its fallback.
		logger.Warn("reasoning service unavailable", zap.Error(err))
		svc, modelName = nil, cfg.Model
	}

	actions, err := action.New(
		action.Builtins(s, action.LogMessenger{Logger: logger.Named("messenger")}),
		action.WithTimeout(cfg.Timeouts.Action.Duration),
		action.WithLogger(logger.Named("action")),
	)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		perception.New(svc, modelName, logger.Named("perception")),
		s,
		decision.New(svc, logger.Named("decision")),
		actions,
		pipeline.WithStoreTimeout(cfg.Timeouts.Store.Duration),
		pipeline.WithRetrieveLimit(cfg.RetrieveLimit),
		pipeline.WithLogger(logger.Named("pipeline")),
	), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
