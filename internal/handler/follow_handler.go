package handler

import (
	"errors"
	"net/http"

	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc       *service.FollowService
	loginPath string
}

func NewFollowHandler(svc *service.FollowService, loginPath string) *FollowHandler {
	return &FollowHandler{svc: svc, loginPath: loginPath}
}

// Follow 关注后回到作者主页；重复关注和关注自己都是空操作
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	_, _, err := h.svc.Follow(c.Request.Context(), middleware.CurrentUser(c), username)
	if err != nil && !errors.Is(err, service.ErrSelfFollow) {
		handleError(c, err, h.loginPath)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// Unfollow 未关注时为空操作
func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if _, _, err := h.svc.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// Feed 关注作者的帖子
func (h *FollowHandler) Feed(c *gin.Context) {
	list, err := h.svc.Feed(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.HTML(http.StatusOK, "posts/follow.html", page(c, gin.H{
		"Title": "Following",
		"Posts": list.Posts,
		"Page":  list.Page,
	}))
}
