package handler

import (
	"errors"
	"net/http"

	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc     *service.UserService
	cookies middleware.CookieConfig
}

type loginReq struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func NewUserHandler(svc *service.UserService, cookies middleware.CookieConfig) *UserHandler {
	return &UserHandler{svc: svc, cookies: cookies}
}

func (h *UserHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "users/signup.html", page(c, gin.H{"Title": "Sign up"}))
}

// Signup 注册成功后直接登录
func (h *UserHandler) Signup(c *gin.Context) {
	var form service.SignupForm
	_ = c.ShouldBind(&form)
	ctx := c.Request.Context()

	if _, err := h.svc.Register(ctx, form); err != nil {
		if errs, ok := validationErrors(err); ok {
			c.HTML(http.StatusOK, "users/signup.html", page(c, gin.H{
				"Title":    "Sign up",
				"Username": form.Username,
				"Errors":   errs,
			}))
			return
		}
		handleError(c, err, "")
		return
	}
	_, pair, err := h.svc.Login(ctx, form.Username, form.Password)
	if err != nil {
		handleError(c, err, "")
		return
	}
	middleware.SetTokenCookies(c, pair, h.cookies)
	c.Redirect(http.StatusFound, "/")
}

func (h *UserHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "users/login.html", page(c, gin.H{
		"Title": "Log in",
		"Next":  c.Query("next"),
	}))
}

// Login 登录后跳转到 next（仅站内路径）
func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	_ = c.ShouldBind(&req)
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	_, pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.HTML(http.StatusOK, "users/login.html", page(c, gin.H{
			"Title":    "Log in",
			"Next":     req.Next,
			"Username": req.Username,
			"Errors":   gin.H{"form": "Please enter a correct username and password."},
		}))
		return
	}
	if err != nil {
		handleError(c, err, "")
		return
	}
	middleware.SetTokenCookies(c, pair, h.cookies)
	c.Redirect(http.StatusFound, middleware.SafeNext(req.Next, "/"))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
			handleError(c, err, "")
			return
		}
	}
	middleware.ClearTokenCookies(c, h.cookies)
	c.HTML(http.StatusOK, "users/logged_out.html", gin.H{"Title": "Logged out"})
}
