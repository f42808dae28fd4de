package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc       *service.PostService
	loginPath string
}

func NewPostHandler(svc *service.PostService, loginPath string) *PostHandler {
	return &PostHandler{svc: svc, loginPath: loginPath}
}

func detailURL(id uint64) string {
	return "/posts/" + strconv.FormatUint(id, 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

// Index 首页（外层有页面缓存）
func (h *PostHandler) Index(c *gin.Context) {
	list, err := h.svc.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.HTML(http.StatusOK, "posts/index.html", page(c, gin.H{
		"Title": "Latest updates",
		"Posts": list.Posts,
		"Page":  list.Page,
	}))
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	gp, err := h.svc.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.HTML(http.StatusOK, "posts/group_list.html", page(c, gin.H{
		"Title": gp.Group.Title,
		"Group": gp.Group,
		"Posts": gp.Posts,
		"Page":  gp.Page,
	}))
}

func (h *PostHandler) Profile(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), c.Query("page"))
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.HTML(http.StatusOK, "posts/profile.html", page(c, gin.H{
		"Title":      "Profile of " + p.Author.Username,
		"Author":     p.Author,
		"Followers":  p.Followers,
		"Followings": p.Followings,
		"Following":  p.Following,
		"IsSelf":     p.IsSelf,
		"Posts":      p.Posts,
		"Page":       p.Page,
	}))
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	d, err := h.svc.Detail(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	h.renderDetail(c, http.StatusOK, d, "", nil)
}

func (h *PostHandler) renderDetail(c *gin.Context, status int, d *service.PostDetail, comment string, errs gin.H) {
	c.HTML(status, "posts/post_detail.html", page(c, gin.H{
		"Title":           "Post " + d.Post.Excerpt(),
		"Post":            d.Post,
		"Comments":        d.Comments,
		"AuthorPostCount": d.AuthorPostCount,
		"CanEdit":         d.CanEdit,
		"CommentText":     comment,
		"Errors":          errs,
	}))
}

// bindPostForm 绑定文本字段并读取上传的图片；返回的 closer 在请求结束前调用
func bindPostForm(c *gin.Context) (service.PostForm, func(), error) {
	var form service.PostForm
	if err := c.ShouldBind(&form); err != nil {
		return form, func() {}, err
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return form, func() {}, nil
	}
	if err != nil {
		return form, func() {}, err
	}
	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return form, func() {}, err
	}
	form.Image = &media.Upload{Name: fh.Filename, Body: f}
	return form, func() { f.Close() }, nil
}

func (h *PostHandler) renderForm(c *gin.Context, status int, form service.PostForm, post *model.Post, errs gin.H) {
	groups, err := h.svc.Groups(c.Request.Context())
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	c.HTML(status, "posts/create_post.html", page(c, gin.H{
		"Title":  title,
		"IsEdit": post != nil,
		"Post":   post,
		"Form":   form,
		"Groups": groups,
		"Errors": errs,
	}))
}

// CreateForm GET /create/
func (h *PostHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, service.PostForm{}, nil, nil)
}

// Create POST /create/ 成功后跳转到作者主页
func (h *PostHandler) Create(c *gin.Context) {
	form, closeImage, err := bindPostForm(c)
	defer closeImage()
	if err != nil {
		h.renderForm(c, http.StatusBadRequest, form, nil, gin.H{"form": "Invalid form data."})
		return
	}
	user := middleware.CurrentUser(c)
	if _, err = h.svc.Create(c.Request.Context(), user, form); err != nil {
		if errs, ok := validationErrors(err); ok {
			h.renderForm(c, http.StatusOK, form, nil, errs)
			return
		}
		handleError(c, err, h.loginPath)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// EditForm 非作者直接跳回详情页
func (h *PostHandler) EditForm(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	post, err := h.svc.ForEdit(c.Request.Context(), middleware.CurrentUser(c), id)
	if errors.Is(err, service.ErrNotOwner) {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	form := service.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.GroupID = *post.GroupID
	}
	h.renderForm(c, http.StatusOK, form, post, nil)
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	form, closeImage, err := bindPostForm(c)
	defer closeImage()
	if err != nil {
		c.Redirect(http.StatusFound, detailURL(id)+"edit/")
		return
	}
	_, err = h.svc.Edit(c.Request.Context(), middleware.CurrentUser(c), id, form)
	switch {
	case err == nil, errors.Is(err, service.ErrNotOwner):
		c.Redirect(http.StatusFound, detailURL(id))
	default:
		if errs, ok := validationErrors(err); ok {
			post, ferr := h.svc.ForEdit(c.Request.Context(), middleware.CurrentUser(c), id)
			if ferr != nil {
				handleError(c, ferr, h.loginPath)
				return
			}
			h.renderForm(c, http.StatusOK, form, post, errs)
			return
		}
		handleError(c, err, h.loginPath)
	}
}

// Delete POST /posts/:id/delete/
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	err := h.svc.Delete(c.Request.Context(), user, id)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, profileURL(user.Username))
	case errors.Is(err, service.ErrNotOwner):
		c.Redirect(http.StatusFound, detailURL(id))
	default:
		handleError(c, err, h.loginPath)
	}
}

// AddComment 评论后回到详情页
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form service.CommentForm
	_ = c.ShouldBind(&form)
	user := middleware.CurrentUser(c)
	_, err := h.svc.AddComment(c.Request.Context(), user, id, form)
	if err == nil {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}
	if errs, ok := validationErrors(err); ok {
		d, derr := h.svc.Detail(c.Request.Context(), user, id)
		if derr != nil {
			handleError(c, derr, h.loginPath)
			return
		}
		h.renderDetail(c, http.StatusOK, d, form.Text, errs)
		return
	}
	handleError(c, err, h.loginPath)
}

// Groups GET /groups/
func (h *PostHandler) Groups(c *gin.Context) {
	groups, err := h.svc.Groups(c.Request.Context())
	if err != nil {
		handleError(c, err, h.loginPath)
		return
	}
	c.HTML(http.StatusOK, "posts/groups.html", page(c, gin.H{
		"Title":  "Groups",
		"Groups": groups,
	}))
}
