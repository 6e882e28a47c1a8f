package router

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"obituary-service/internal/core/blob"
	"obituary-service/internal/core/server"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/handler"
	mdw "obituary-service/internal/transport/http/middleware"
	resp "obituary-service/internal/transport/http/response"
)

type APIDeps struct {
	Log        *zap.Logger
	Server     server.Options
	Verifier   mdw.Verifier
	Auth       *service.AuthGate
	Listing    *service.ListingEngine
	Obituaries *service.ObituaryService
	Rewrite    *service.RewriteService
	Blobs      *blob.Store
	Now        func() time.Time
}

func NewAPIEngine(d APIDeps) *gin.Engine {
	r := server.NewRouter(d.Log, d.Server)

	if d.Blobs != nil {
		r.GET(d.Blobs.Prefix()+"/*file", serveBlob(d.Blobs))
		r.HEAD(d.Blobs.Prefix()+"/*file", serveBlob(d.Blobs))
	}

	api := r.Group("/api/v1")
	api.Use(mdw.Authenticate(d.Verifier, d.Now))
	MountAllAPI(api,
		handler.NewAuthHandler(d.Auth),
		handler.NewObituaryHandler(d.Listing, d.Obituaries),
		handler.NewRewriteHandler(d.Rewrite),
	)
	return r
}

func serveBlob(store *blob.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := store.Prefix() + c.Param("file")
		f, err := store.Open(ref)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil || st.IsDir() {
			c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		http.ServeContent(c.Writer, c.Request, st.Name(), st.ModTime(), f)
	}
}
