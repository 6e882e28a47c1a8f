package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/ez"
	mdw "obituary-service/internal/transport/http/middleware"
)

// AdminHandler mounts account management; the group must already require
// the admin role.
type AdminHandler struct{ admin *service.AccountAdmin }

func NewAdminHandler(admin *service.AccountAdmin) *AdminHandler { return &AdminHandler{admin: admin} }

type accountsIn struct {
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Q      string `form:"q"`
}

type roleIn struct {
	Role string `json:"role" binding:"required"`
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	ez.RegisterAction(e, ez.Action[accountsIn, service.AccountPage]{
		Method: http.MethodGet,
		Path:   "/accounts",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *accountsIn) (service.AccountPage, error) {
			return h.admin.List(c.Request.Context(), in.Q, in.Offset, in.Limit)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/accounts/:id/ban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := h.admin.Ban(c.Request.Context(), *mdw.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[roleIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/accounts/:id/roles",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (gin.H, error) {
			id := c.Param("id")
			if err := h.admin.GrantRole(c.Request.Context(), *mdw.Caller(c), id, in.Role); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "role": in.Role}, nil
		},
	})
}
