package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

// page 模板公共数据，带上当前用户
func page(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	return data
}

func renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, middleware.ErrorTemplate, page(c, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
	}))
}

// handleError 在边界处把 service 错误映射为 HTTP 响应
func handleError(c *gin.Context, err error, loginPath string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderError(c, http.StatusNotFound, "The page you requested was not found.")
	case errors.Is(err, service.ErrAuthRequired):
		c.Redirect(http.StatusFound, middleware.LoginURL(loginPath, c.Request.URL.RequestURI()))
	default:
		log.Printf("%s %s err: %v", c.Request.Method, c.Request.URL.Path, err)
		renderError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

// validationErrors 表单错误，字段名 -> 提示
func validationErrors(err error) (gin.H, bool) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	return gin.H{verr.Field: verr.Message}, true
}

func paramID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		renderError(c, http.StatusNotFound, "The page you requested was not found.")
		return 0, false
	}
	return id, true
}
