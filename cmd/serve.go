package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/api"
	"github.com/chenBenjamin97/squat-checker/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /predict and the read-only sample / repetition API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	classifier, model, err := openClassifier(ctx)
	if err != nil {
		return err
	}
	defer model.Close()

	opts := api.Options{Classifier: classifier, SamplesDir: cfg.Directory.Samples, Logger: logger}
	repo, err := openStore(ctx)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
		opts.Repetitions = repo
	}

	cfg.Watch(func(e fsnotify.Event, reloaded *config.Config, err error) {
		if err != nil {
			logger.Warn("Config file changed but is invalid", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("Config file changed, restart the server to apply it", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})

	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: api.SetRouter(opts)}

	errC := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
