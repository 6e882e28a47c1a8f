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
	"obituary-service/internal/core/config"
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
	log, cleanup := app.NewLogger(cfg, "obituary-admin")
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

	r := router.NewAdminEngine(router.AdminDeps{
		Log:      log,
		Server:   app.ServerOptions(cfg, cfg.App.Name+"-admin", st.Ping),
		Verifier: codec,
		Accounts: service.NewAccountAdmin(st.Accounts, log),
	})

	// admin traffic is light; fixed timeouts
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

	baseURL := app.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("admin api FAILED", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}
