package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/ez"
	mdw "obituary-service/internal/transport/http/middleware"
)

type ObituaryHandler struct {
	list *service.ListingEngine
	svc  *service.ObituaryService
}

func NewObituaryHandler(list *service.ListingEngine, svc *service.ObituaryService) *ObituaryHandler {
	return &ObituaryHandler{list: list, svc: svc}
}

func (h *ObituaryHandler) Priority() int { return 20 }

type listIn struct {
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
	Search     string `form:"search"`
}

// bindRecord collects date parse errors, photo errors and record invariants together.
func bindRecord(c *gin.Context, in *obituaryForm) (domain.ObituaryInput, *service.Photo, func(), error) {
	v := &errs.ValidationError{}
	rec := in.input(v)
	photo, closePhoto := photoFrom(c, v)
	if !v.Empty() {
		rec.ValidateInto(v)
		closePhoto()
		return rec, nil, func() {}, v
	}
	return rec, photo, closePhoto, nil
}

func (h *ObituaryHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api)

	ez.RegisterAction(e, ez.Action[listIn, domain.PageResult[domain.ObituaryView]]{
		Method: http.MethodGet,
		Path:   "/obituaries",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) (domain.PageResult[domain.ObituaryView], error) {
			return h.list.Query(c.Request.Context(), domain.PageRequest{
				PageNumber: in.PageNumber,
				PageSize:   in.PageSize,
				Search:     in.Search,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, domain.ObituaryView]{
		Method: http.MethodGet,
		Path:   "/obituaries/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.ObituaryView, error) {
			id, err := pathID(c)
			if err != nil {
				return domain.ObituaryView{}, err
			}
			return h.svc.Get(c.Request.Context(), id)
		},
	})

	ez.RegisterAction(e, ez.Action[obituaryForm, domain.ObituaryView]{
		Method: http.MethodPost,
		Path:   "/obituaries",
		Binder: ez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, in *obituaryForm) (domain.ObituaryView, error) {
			rec, photo, done, err := bindRecord(c, in)
			defer done()
			if err != nil {
				return domain.ObituaryView{}, err
			}
			return h.svc.Create(c.Request.Context(), mdw.Caller(c), rec, photo)
		},
	})

	ez.RegisterAction(e, ez.Action[obituaryForm, domain.ObituaryView]{
		Method: http.MethodPut,
		Path:   "/obituaries/:id",
		Binder: ez.BindForm,
		Handler: func(c *gin.Context, in *obituaryForm) (domain.ObituaryView, error) {
			id, err := pathID(c)
			if err != nil {
				return domain.ObituaryView{}, err
			}
			rec, photo, done, err := bindRecord(c, in)
			defer done()
			if err != nil {
				return domain.ObituaryView{}, err
			}
			return h.svc.Update(c.Request.Context(), mdw.Caller(c), id, rec, photo)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/obituaries/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := pathID(c)
			if err != nil {
				return nil, err
			}
			if err := h.svc.Delete(c.Request.Context(), mdw.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
