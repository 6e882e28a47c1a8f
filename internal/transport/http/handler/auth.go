package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/errs"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/ez"
	mdw "obituary-service/internal/transport/http/middleware"
)

type AuthHandler struct {
	gate *service.AuthGate
}

func NewAuthHandler(gate *service.AuthGate) *AuthHandler { return &AuthHandler{gate: gate} }

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerIn struct {
	Email           string `form:"email"           json:"email"`
	Password        string `form:"password"        json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
	obituaryForm
}

type meOut struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api)

	ez.RegisterAction(e, ez.Action[loginIn, service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (service.LoginResult, error) {
			return h.gate.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.RegisterAction(e, ez.Action[registerIn, service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindForm,
		Handler: func(c *gin.Context, in *registerIn) (service.LoginResult, error) {
			v := &errs.ValidationError{}
			rec := in.input(v)
			photo, closePhoto := photoFrom(c, v)
			defer closePhoto()
			r := service.Registration{
				Email:           in.Email,
				Password:        in.Password,
				ConfirmPassword: in.ConfirmPassword,
				Obituary:        rec,
				Photo:           photo,
			}
			if !v.Empty() {
				if err := r.Validate(); err != nil {
					more, _ := errs.AsValidation(err)
					for k, msg := range more.Fields {
						v.Add(k, msg)
					}
				}
				return service.LoginResult{}, v
			}
			return h.gate.Register(c.Request.Context(), r)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			cs := mdw.Caller(c)
			roles := cs.Roles
			if roles == nil {
				roles = []string{}
			}
			return meOut{UserID: cs.SubjectID, Username: cs.Username, Email: cs.Email, Roles: roles}, nil
		},
	})
}
