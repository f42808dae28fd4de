package middleware

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
)

// bodyWriter 记录写出的响应体
type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheKey 路由名 + 完整 URI（含 ?page=）+ 访问者
func CacheKey(name, requestURI string, viewer *model.User) string {
	who := "anon"
	if viewer != nil {
		who = "u:" + viewer.Username
	}
	return name + "|" + requestURI + "|" + who
}

// CachePage 缓存整页 HTML ttl 时间，期间内容变化也返回旧页面。
// 只缓存 GET 的 200 响应；必须放在 Identity 之后。
func CachePage(cache repository.PageCache, ttl time.Duration, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || ttl <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := CacheKey(name, c.Request.URL.RequestURI(), CurrentUser(c))

		body, ok, err := cache.Get(ctx, key)
		if err != nil {
			log.Printf("page cache get %s err: %v", key, err)
		}
		if ok {
			c.Data(http.StatusOK, "text/html; charset=utf-8", body)
			c.Abort()
			return
		}

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK || w.buf.Len() == 0 {
			return
		}
		if err = cache.Set(ctx, key, w.buf.Bytes(), ttl); err != nil {
			log.Printf("page cache set %s err: %v", key, err)
		}
	}
}
