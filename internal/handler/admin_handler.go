package handler

import (
	"log"
	"net/http"

	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员路由：分组管理与页面缓存
type AdminHandler struct {
	groups *service.GroupService
	cache  repository.PageCache
}

func NewAdminHandler(groups *service.GroupService, cache repository.PageCache) *AdminHandler {
	return &AdminHandler{groups: groups, cache: cache}
}

func (h *AdminHandler) renderGroups(c *gin.Context, status int, form service.GroupForm, errs gin.H) {
	list, err := h.groups.ListGroups(c.Request.Context())
	if err != nil {
		handleError(c, err, "")
		return
	}
	c.HTML(status, "admin/groups.html", page(c, gin.H{
		"Title":  "Manage groups",
		"Groups": list,
		"Form":   form,
		"Errors": errs,
	}))
}

func (h *AdminHandler) Groups(c *gin.Context) {
	h.renderGroups(c, http.StatusOK, service.GroupForm{}, nil)
}

func (h *AdminHandler) CreateGroup(c *gin.Context) {
	var form service.GroupForm
	_ = c.ShouldBind(&form)
	if _, err := h.groups.CreateGroup(c.Request.Context(), form); err != nil {
		if errs, ok := validationErrors(err); ok {
			h.renderGroups(c, http.StatusOK, form, errs)
			return
		}
		handleError(c, err, "")
		return
	}
	c.Redirect(http.StatusFound, "/admin/groups/")
}

// DeleteGroup 帖子保留，只是不再属于该分组
func (h *AdminHandler) DeleteGroup(c *gin.Context) {
	if err := h.groups.DeleteGroup(c.Request.Context(), c.Param("slug")); err != nil {
		handleError(c, err, "")
		return
	}
	c.Redirect(http.StatusFound, "/admin/groups/")
}

// ClearCache 立即清空页面缓存
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		log.Printf("page cache clear err: %v", err)
		renderError(c, http.StatusInternalServerError, "Could not clear the cache.")
		return
	}
	c.Redirect(http.StatusFound, "/")
}
