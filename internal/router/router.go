package router

import (
	"net/http"
	"strings"

	"yatube/internal/config"
	"yatube/internal/handler"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/web"

	"github.com/gin-gonic/gin"
)

// Deps 路由依赖的存储实现，由 main 或测试按配置组装
type Deps struct {
	Stores   repository.Set
	Sessions repository.SessionStore
	Cache    repository.PageCache
	Media    *media.LocalStorage
}

func InitRouter(cfg config.Config, deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.Media.MaxUploadBytes

	tmpl, err := web.Templates(deps.Media.URL)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	tokens := pkg.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	cookies := middleware.CookieConfig{MaxAge: cfg.Auth.RefreshTTL, Secure: cfg.Auth.SecureCookie}
	loginPath := cfg.Auth.LoginPath

	userSvc := service.NewUserService(deps.Stores.Users, deps.Sessions, tokens)
	postSvc := service.NewPostService(deps.Stores, deps.Media, cfg.Posts.PageSize)
	followSvc := service.NewFollowService(deps.Stores, cfg.Posts.PageSize)
	groupSvc := service.NewGroupService(deps.Stores.Groups)

	user := handler.NewUserHandler(userSvc, cookies)
	post := handler.NewPostHandler(postSvc, loginPath)
	follow := handler.NewFollowHandler(followSvc, loginPath)
	admin := handler.NewAdminHandler(groupSvc, deps.Cache)

	r.Use(middleware.Identity(userSvc, cookies))
	r.Static(strings.TrimSuffix(cfg.Media.URLPrefix, "/"), deps.Media.Root)
	r.NoRoute(handler.NotFound)

	// 公开页面
	r.GET("/", middleware.CachePage(deps.Cache, cfg.Posts.IndexCacheTTL, "index"), post.Index)
	r.GET("/group/:slug/", post.GroupPosts)
	r.GET("/groups/", post.Groups)
	r.GET("/profile/:username/", post.Profile)
	r.GET("/posts/:id/", post.Detail)
	r.GET("/about/author/", handler.About("about/author.html", "About the author"))
	r.GET("/about/tech/", handler.About("about/tech.html", "Technologies"))

	// 用户相关接口
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/signup/", user.SignupForm)
		authGroup.POST("/signup/", user.Signup)
		authGroup.GET("/login/", user.LoginForm)
		authGroup.POST("/login/", user.Login)
		authGroup.GET("/logout/", user.Logout)
		authGroup.POST("/logout/", user.Logout)
	}

	// 登录态接口
	protected := r.Group("/")
	protected.Use(middleware.LoginRequired(loginPath))
	{
		protected.GET("/create/", post.CreateForm)
		protected.POST("/create/", post.Create)
		protected.GET("/posts/:id/edit/", post.EditForm)
		protected.POST("/posts/:id/edit/", post.Edit)
		protected.POST("/posts/:id/delete/", post.Delete)
		protected.POST("/posts/:id/comment/", post.AddComment)
		protected.GET("/follow/", follow.Feed)
		protected.Match([]string{http.MethodGet, http.MethodPost}, "/profile/:username/follow/", follow.Follow)
		protected.Match([]string{http.MethodGet, http.MethodPost}, "/profile/:username/unfollow/", follow.Unfollow)
	}

	// 管理员接口
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminRequired(loginPath))
	{
		adminGroup.POST("/cache/clear/", admin.ClearCache)
		adminGroup.GET("/groups/", admin.Groups)
		adminGroup.POST("/groups/", admin.CreateGroup)
		adminGroup.POST("/groups/:slug/delete/", admin.DeleteGroup)
	}

	return r, nil
}
