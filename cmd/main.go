package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/config"
	"github.com/chenBenjamin97/squat-checker/pkg/logging"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "squat-checker",
	Short: "Squat repetition counter and form classifier",
	Long: `squat-checker segments a stream of body poses into squat repetitions, encodes each repetition
as a fixed 30x48 keypoint sequence and classifies its form with a pre-trained model.

It serves predictions over HTTP, runs a live camera overlay and builds training datasets from videos.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = logging.New(verbose); err != nil {
			return err
		}

		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if cfg.File == "" {
			logger.Warn("No config file found, running on defaults")
		}

		//first - create project's data directories
		return cfg.EnsureDirectories()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, liveCmd, replayCmd, extractCSVCmd, extractJSONCmd)
}

//openClassifier loads the configured model once and wraps it with the offline output policy
func openClassifier(ctx context.Context) (*classify.Adapter, classify.Model, error) {
	model, err := classify.Open(ctx, cfg.Model)
	if err != nil {
		return nil, nil, err
	}

	adapter, err := classify.NewAdapter(model, cfg.ClassifyConfig())
	if err != nil {
		model.Close()
		return nil, nil, err
	}

	logger.Info("Model loaded", zap.String("backend", cfg.Model.Backend), zap.String("arity", cfg.Classify.Arity))
	return adapter, model, nil
}

//openStore returns nil when the repetition store is disabled
func openStore(ctx context.Context) (*store.Repository, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}

	repo, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}

	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	logger.Info("Repetition store ready", zap.String("driver", cfg.Store.Driver))
	return repo, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
