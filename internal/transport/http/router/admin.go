package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/core/server"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/handler"
	mdw "obituary-service/internal/transport/http/middleware"
)

type AdminDeps struct {
	Log      *zap.Logger
	Server   server.Options
	Verifier mdw.Verifier
	Accounts *service.AccountAdmin
	Now      func() time.Time
}

func NewAdminEngine(d AdminDeps) *gin.Engine {
	r := server.NewRouter(d.Log, d.Server)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.Authenticate(d.Verifier, d.Now), mdw.RequireRole(auth.RoleAdmin))
	MountAllAdmin(admin, handler.NewAdminHandler(d.Accounts))
	return r
}
