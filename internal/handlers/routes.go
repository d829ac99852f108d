package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
)

// Guards are the middleware that routes are wrapped in.
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	// APILimit throttles writes to the public API.
	APILimit gin.HandlerFunc
	// AuthLimit throttles credential endpoints.
	AuthLimit gin.HandlerFunc
	// Maintenance closes the public site while maintenance mode is on.
	Maintenance gin.HandlerFunc
}

// RegisterRoutes mounts the JSON API, the feeds and the fallback handlers.
func (h *Handler) RegisterRoutes(r *gin.Engine, g Guards) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotAllowed)
	r.NoRoute(NotFound)

	r.GET("/health", h.Health.Database)
	r.GET("/feed.xml", g.Maintenance, h.Post.Feed)
	r.GET("/sitemap.xml", g.Maintenance, h.Post.Sitemap)

	api := r.Group("/api")
	api.GET("/health", h.Health.Status)
	api.POST("/csp-report", h.CSP.Report)

	public := api.Group("", g.Maintenance)
	public.POST("/contact", g.APILimit, h.Contact.Send)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", g.AuthLimit, h.Auth.Register)
		authRoutes.POST("/login", g.AuthLimit, h.Auth.Login)
		authRoutes.POST("/google", g.AuthLimit, h.Auth.GoogleLogin)
		authRoutes.POST("/logout", h.Auth.Logout)
		authRoutes.GET("/me", g.Auth, h.Auth.Me)
		authRoutes.PUT("/me", g.Auth, h.Auth.UpdateMe)
	}

	public.GET("/users/:id", h.User.GetUser)

	public.GET("/posts", h.Post.ListPosts)
	public.GET("/posts/:slug", h.Post.GetPost)
	public.GET("/posts/:slug/translations/:lang", h.Post.GetTranslation)
	public.GET("/categories", h.Post.Categories)
	public.GET("/tags", h.Post.Tags)

	public.GET("/comments", g.OptionalAuth, h.Comment.GetComments)
	comments := public.Group("/comments", g.Auth)
	{
		comments.POST("", g.APILimit, h.Comment.CreateComment)
		comments.PUT("/:id", h.Comment.UpdateComment)
		comments.DELETE("/:id", h.Comment.DeleteComment)
		comments.POST("/:id/like", g.APILimit, h.Comment.LikeComment)
	}

	newsletter := public.Group("/newsletter")
	{
		newsletter.GET("", h.Newsletter.Count)
		newsletter.POST("", g.APILimit, h.Newsletter.Subscribe)
		newsletter.DELETE("", h.Newsletter.Unsubscribe)
		newsletter.GET("/confirm", h.Newsletter.Confirm)
	}

	admin := api.Group("/admin", g.Auth)

	moderation := admin.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
	{
		moderation.GET("/comments", h.Admin.ListComments)
		moderation.PUT("/comments/:id", h.Admin.UpdateComment)
		moderation.POST("/comments/:id/moderate", h.Admin.ModerateComment)
		moderation.DELETE("/comments/:id", h.Admin.DeleteComment)
	}

	admin.POST("/posts", middleware.RequireRole(models.RoleAdmin, models.RoleEditor), h.Admin.CreatePost)

	adminOnly := admin.Group("", middleware.RequireRole(models.RoleAdmin))
	{
		adminOnly.GET("/users", h.Admin.ListUsers)
		adminOnly.GET("/users/:id", h.Admin.GetUser)
		adminOnly.PUT("/users/:id", h.Admin.UpdateUser)
		adminOnly.POST("/users/:id/role", h.Admin.SetUserRole)
		adminOnly.POST("/users/:id/status", h.Admin.SetUserStatus)
		adminOnly.DELETE("/users/:id", h.Admin.DeleteUser)
		adminOnly.GET("/stats", h.Admin.Stats)
		adminOnly.GET("/logs", h.Admin.ListLogs)
		adminOnly.GET("/settings", h.Admin.ListSettings)
		adminOnly.PUT("/settings/:key", h.Admin.UpdateSetting)
		adminOnly.GET("/newsletter", h.Admin.ListNewsletter)
		adminOnly.GET("/pageviews", h.Admin.PageViews)
	}
}
