package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/medrag/internal/config"
	"github.com/xxxsen/medrag/internal/handler"
	"github.com/xxxsen/medrag/internal/job"
	"github.com/xxxsen/medrag/internal/middleware"
	"github.com/xxxsen/medrag/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "medrag",
		Short: "document retrieval service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(a)
		},
	}

	var filePath, mimeType string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "ingest one document from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(filePath))
			}
			res, err := a.rag.Ingest(cmd.Context(), data, filepath.Base(filePath), mimeType)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	ingestCmd.Flags().StringVar(&filePath, "file", "", "document to ingest")
	ingestCmd.Flags().StringVar(&mimeType, "mime", "", "mime type, detected from the extension when empty")

	var query string
	var topK int
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "search the ingested corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			matches, err := a.rag.Search(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			return printJSON(cmd, matches)
		},
	}
	searchCmd.Flags().StringVar(&query, "query", "", "search text")
	searchCmd.Flags().IntVar(&topK, "top-k", 0, "number of results, 0 uses the configured default")

	rootCmd.AddCommand(runCmd, ingestCmd, searchCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func setup(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return newApp(cfg)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServer(a *app) error {
	cfg := a.cfg
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database.Type),
		zap.Int("embedding_dimension", cfg.RAG.EmbeddingDimension),
	)

	deps := handler.RouterDeps{
		Resources: handler.NewResourceHandler(a.rag, cfg.RAG.MaxUploadBytes),
		RateLimit: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewOrphanChunkSweepJob(a.index, time.Duration(cfg.Schedule.OrphanGraceMinutes)*time.Minute), cfg.Schedule.OrphanSweep); err != nil {
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}
	if a.cacheRepo != nil {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(a.cacheRepo, cfg.EmbedCache.MaxAgeDays), cfg.Schedule.EmbeddingCacheSweep); err != nil {
			return fmt.Errorf("schedule embedding cache cleanup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
