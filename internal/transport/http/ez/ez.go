// Package ez registers gin handlers as typed actions and maps service errors
// onto the response envelope in one place.
package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/errs"
	mdw "obituary-service/internal/transport/http/middleware"
	resp "obituary-service/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

type Binder string

const (
	BindJSON  Binder = "json"  // JSON body
	BindQuery Binder = "query" // ?a=b
	BindForm  Binder = "form"  // multipart, urlencoded or JSON by Content-Type
	BindNone  Binder = "none"  // handler reads c.Param itself
)

// AErr carries an explicit envelope code out of a handler.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func NotFound(msg string) error   { return &AErr{Code: resp.CodeNotFound, Msg: msg} }

type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool // reject anonymous callers before binding
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if cs := mdw.Caller(c); cs == nil || !cs.Authenticated() {
				Fail(c, errs.ErrUnauthenticated)
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		}
		if bindErr != nil {
			Fail(c, &AErr{Code: resp.CodeBadRequest, Msg: "invalid request: " + bindErr.Error(), Err: bindErr})
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		OK(c, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func OK(c *gin.Context, data any) {
	c.Set(mdw.KeyEnvelopeCode, resp.CodeOK)
	c.JSON(http.StatusOK, resp.OK(data))
}

type fieldErrors struct {
	Fields map[string]string `json:"fields"`
}

// Fail writes the envelope for err. Internal causes are attached to the gin
// context for the access log and replaced by a generic message.
func Fail(c *gin.Context, err error) {
	code, msg, data := classify(err)
	if code >= resp.CodeServerError {
		_ = c.Error(err)
	}
	c.Set(mdw.KeyEnvelopeCode, code)
	c.JSON(http.StatusOK, resp.ErrorWithData(code, msg, data))
}

func classify(err error) (code int, msg string, data any) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= resp.CodeServerError {
			return ae.Code, "", nil
		}
		return ae.Code, ae.Error(), nil
	}
	if v, ok := errs.AsValidation(err); ok {
		return resp.CodeBadRequest, "validation failed", fieldErrors{Fields: v.Fields}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return resp.CodeTimeout, "timeout", nil
	case errors.Is(err, errs.ErrInvalidCredentials):
		return resp.CodeUnauthorized, errs.ErrInvalidCredentials.Error(), nil
	case errors.Is(err, errs.ErrUnauthenticated):
		return resp.CodeUnauthorized, "", nil
	case errors.Is(err, errs.ErrForbidden):
		return resp.CodeForbidden, "", nil
	case errors.Is(err, errs.ErrNotFound):
		return resp.CodeNotFound, "", nil
	case errors.Is(err, errs.ErrConflict):
		return resp.CodeConflict, conflictMsg(err), nil
	case errors.Is(err, errs.ErrRewriteFailed):
		return resp.CodeBadGateway, "AI rewrite failed", nil
	default:
		return resp.CodeServerError, "", nil
	}
}

// conflictMsg keeps the service's own wording, which names only caller input.
func conflictMsg(err error) string {
	if msg := err.Error(); msg != errs.ErrConflict.Error() {
		return strings.TrimSuffix(msg, ": "+errs.ErrConflict.Error())
	}
	return ""
}
