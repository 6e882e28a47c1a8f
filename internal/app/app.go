// Package app assembles the collaborators shared by the api and admin binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/core/config"
	"obituary-service/internal/core/database"
	"obituary-service/internal/core/logger"
	"obituary-service/internal/core/server"
	"obituary-service/internal/domain"
	"obituary-service/internal/feature/account"
	"obituary-service/internal/feature/obituary"
	"obituary-service/internal/repo"
	"obituary-service/internal/repo/memory"
	"obituary-service/internal/service"
)

// Storage is the pair of repositories backing one process.
type Storage struct {
	Accounts   domain.AccountRepository
	Obituaries domain.ObituaryRepository
	DB         *gorm.DB // nil for the memory driver
}

func (s Storage) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s Storage) Close() {
	if s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewLogger builds the process logger from config and redirects the standard
// library logger into it.
func NewLogger(c *config.Config, service string) (*zap.Logger, func()) {
	l, flush := logger.Build(logger.Options{
		Level:       c.Log.Level,
		JSON:        c.Log.JSON,
		AddCaller:   true,
		Development: !c.Log.JSON,
		Service:     service,
		Env:         c.App.Env,
		Rotate: logger.FileRotate{
			Enable:     c.Log.File != "",
			Filename:   c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
			Compress:   c.Log.Compress,
		},
	})
	undo := logger.RedirectStdLog(l, zapcore.ErrorLevel)
	return l, func() {
		undo()
		flush()
	}
}

// OpenStorage returns in-process repositories for the memory driver and gorm
// repositories otherwise, migrating the schema when configured to.
func OpenStorage(c *config.Config, l *zap.Logger) (Storage, error) {
	if c.DB.Driver == "memory" {
		st := memory.New()
		l.Warn("using in-memory storage; data is lost on restart")
		return Storage{Accounts: st.Accounts(), Obituaries: st.Obituaries()}, nil
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             c.DB.Driver,
		DSN:                c.DB.DSN,
		Username:           c.DB.Username,
		Password:           c.DB.Password,
		MaxOpenConns:       c.DB.MaxOpenConns,
		MaxIdleConns:       c.DB.MaxIdleConns,
		ConnMaxLifetimeMin: c.DB.ConnMaxLifetimeMin,
		LogLevel:           c.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		return Storage{}, fmt.Errorf("open db: %w", err)
	}
	l.Info("database connected", zap.String("driver", c.DB.Driver))
	if c.DB.AutoMigrate {
		if err := db.AutoMigrate(&account.AccountModel{}, &account.RoleModel{}, &obituary.ObituaryModel{}); err != nil {
			return Storage{}, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}
	return Storage{Accounts: repo.NewAccountRepo(db), Obituaries: repo.NewObituaryRepo(db), DB: db}, nil
}

func NewCodec(c *config.Config) (*auth.Codec, error) {
	return auth.NewCodec(auth.Options{
		Secret:   []byte(c.JWT.Secret),
		Issuer:   c.JWT.Issuer,
		Audience: c.JWT.Audience,
		TTL:      c.JWT.TTL(),
		Leeway:   c.JWT.Leeway(),
	})
}

// Seed runs the bootstrap seeder when enabled.
func Seed(ctx context.Context, c *config.Config, st Storage, l *zap.Logger) error {
	if !c.Seed.Enabled {
		return nil
	}
	return service.NewSeeder(st.Accounts, st.Obituaries, l).Run(ctx, service.SeedOptions{
		AdminEmail:    c.Seed.AdminEmail,
		AdminPassword: c.Seed.AdminPassword,
		UserEmail:     c.Seed.UserEmail,
		UserPassword:  c.Seed.UserPassword,
		Samples:       c.Seed.Samples,
	})
}

func ServerOptions(c *config.Config, name string, health func(context.Context) error) server.Options {
	mode := "debug"
	if c.App.Env == "prod" {
		mode = "release"
	}
	return server.Options{
		Name:           name,
		Mode:           mode,
		RequestTimeout: time.Duration(c.App.HTTP.RequestTimeoutSec) * time.Second,
		MaxConcurrent:  c.App.HTTP.MaxConcurrent,
		QueueWait:      2 * time.Second,
		MaxBodyBytes:   c.App.HTTP.MaxBodyMB << 20,
		Health:         health,
	}
}

// HumanURL turns a bind address into something clickable in the startup log.
func HumanURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
