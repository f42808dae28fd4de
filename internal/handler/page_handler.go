package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// About 静态页面
func About(template, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, template, page(c, gin.H{"Title": title}))
	}
}

// NotFound 未匹配的路由
func NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "The page you requested was not found.")
}
