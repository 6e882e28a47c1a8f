package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"obituary-service/internal/app"
	"obituary-service/internal/core/blob"
	"obituary-service/internal/core/cache"
	"obituary-service/internal/core/config"
	"obituary-service/internal/core/rewrite"
	"obituary-service/internal/core/server"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, cleanup := app.NewLogger(cfg, "obituary-api")
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStorage(cfg, log)
	if err != nil {
		log.Fatal("storage init FAILED", zap.Error(err))
	}
	defer st.Close()

	if err := app.Seed(ctx, cfg, st, log); err != nil {
		log.Fatal("seed FAILED", zap.Error(err))
	}

	codec, err := app.NewCodec(cfg)
	if err != nil {
		log.Fatal("jwt codec", zap.Error(err))
	}
	blobs, err := blob.NewOS(cfg.Blob.Root, cfg.Blob.Prefix, cfg.Blob.MaxBytes)
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}
	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "obit:")
	defer c.Close()
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unreachable, rewrite cache degraded", zap.Error(err))
	}

	rw := rewrite.NewClient(rewrite.Config{
		BaseURL:    cfg.Rewrite.BaseURL,
		Model:      cfg.Rewrite.Model,
		Timeout:    time.Duration(cfg.Rewrite.TimeoutSec) * time.Second,
		MaxRetries: cfg.Rewrite.MaxRetries,
		RetryDelay: time.Second,
	}, log.Named("rewrite"))

	obits := service.NewObituaryService(st.Obituaries, st.Accounts, blobs, log)
	r := router.NewAPIEngine(router.APIDeps{
		Log:        log,
		Server:     app.ServerOptions(cfg, cfg.App.Name, st.Ping),
		Verifier:   codec,
		Auth:       service.NewAuthGate(st.Accounts, codec, obits, log),
		Listing:    service.NewListingEngine(st.Obituaries, st.Accounts, log),
		Obituaries: obits,
		Rewrite:    service.NewRewriteService(rw, c, time.Duration(cfg.Rewrite.CacheTTLMin)*time.Minute, log),
		Blobs:      blobs,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	baseURL := app.HumanURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("obituary api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("obituary api FAILED", zap.Error(err))
	}
	log.Info("obituary api stopped gracefully")
}
