package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/ez"
)

type RewriteHandler struct{ svc *service.RewriteService }

func NewRewriteHandler(svc *service.RewriteService) *RewriteHandler { return &RewriteHandler{svc: svc} }

type rewriteIn struct {
	Text string `json:"text"`
}

type rewriteOut struct {
	Text string `json:"text"`
}

func (h *RewriteHandler) MountAPI(api *gin.RouterGroup) {
	ez.RegisterAction(ez.New(api), ez.Action[rewriteIn, rewriteOut]{
		Method: http.MethodPost,
		Path:   "/ai/rewrite",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *rewriteIn) (rewriteOut, error) {
			out, err := h.svc.Rewrite(c.Request.Context(), in.Text)
			return rewriteOut{Text: out}, err
		},
	})
}
