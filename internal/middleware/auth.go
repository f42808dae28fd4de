package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserKey = "current_user"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// ErrorTemplate 403/404/500 共用的错误页
	ErrorTemplate = "core/error.html"
)

// Authenticator 由 service.UserService 实现
type Authenticator interface {
	Authenticate(ctx context.Context, access, refresh string) (*model.User, *pkg.Pair, error)
}

// CookieConfig 两个 cookie 都按 refresh 有效期保存，过期的 access 仍需带上用于换新
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

// Identity 从 cookie 解析当前用户，失败时按匿名处理，不拦截请求
func Identity(auth Authenticator, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, _ := c.Cookie(AccessCookie)
		refresh, _ := c.Cookie(RefreshCookie)
		if access == "" && refresh == "" {
			c.Next()
			return
		}

		user, pair, err := auth.Authenticate(c.Request.Context(), access, refresh)
		switch {
		case err == nil:
			if pair != nil {
				SetTokenCookies(c, pair, cookies)
			}
			c.Set(ContextUserKey, user)
		case errors.Is(err, service.ErrAuthRequired), errors.Is(err, service.ErrSessionInvalid):
			ClearTokenCookies(c, cookies)
		default:
			log.Printf("identity err: %v", err)
		}
		c.Next()
	}
}

// CurrentUser 匿名时返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok2 := v.(*model.User); ok2 {
			return u
		}
	}
	return nil
}

// LoginRequired 未登录跳转到登录页，并带上 next
func LoginRequired(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(loginPath, c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 仅 role>=1 的用户可访问
func AdminRequired(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, LoginURL(loginPath, c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.HTML(http.StatusForbidden, ErrorTemplate, gin.H{
				"User":    user,
				"Status":  http.StatusForbidden,
				"Message": "You do not have permission to view this page.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginURL /auth/login/?next=/create/ ，路径中的 / 不转义
func LoginURL(loginPath, next string) string {
	return loginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext 只接受站内相对路径，防止跳转到外站
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func SetTokenCookies(c *gin.Context, pair *pkg.Pair, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, pair.AccessToken, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
}

func ClearTokenCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", cfg.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", cfg.Secure, true)
}
