package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/controllers"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/templates"
	"github.com/cppla/yatube/utils"
)

// SetupRouter wires routes, middlewares, templates and controllers.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	set, err := templates.Load(cfg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	view := controllers.NewView(set)

	r := gin.New()
	r.HTMLRender = set
	r.MaxMultipartMemory = int64(cfg.MediaMaxUploadMB) << 20

	// Request logs go to their own rolling file; falls back to the app logger
	gl := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(gl, true, func(c *gin.Context, err any) {
		view.ServerError(c, fmt.Errorf("panic: %v", err))
	}))

	r.Use(apiOnly(cors.New(corsConfig(cfg))))
	r.Use(middleware.AuthOptional(db))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", cfg.StaticRoot)
	r.Static(strings.TrimSuffix(cfg.MediaURL, "/"), cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db, view)
	followController := controllers.NewFollowController(db, view)
	authController := controllers.NewAuthController(db, view)
	groupController := controllers.NewGroupController(db, view)
	apiController := controllers.NewAPIController(db)
	statsController := controllers.NewStatsController(db)

	r.GET("/", postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/profile/:username/", postController.Profile)
	r.GET("/posts/:post_id/", postController.PostDetail)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/signup/", authController.Signup)
	authGroup.POST("/signup/", authController.Signup)
	authGroup.GET("/login/", authController.Login)
	authGroup.POST("/login/", authController.Login)
	authGroup.GET("/logout/", authController.Logout)
	authGroup.POST("/logout/", authController.Logout)

	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/create/", postController.PostCreate)
	protected.POST("/create/", postController.PostCreate)
	protected.GET("/posts/:post_id/edit/", postController.PostEdit)
	protected.POST("/posts/:post_id/edit/", postController.PostEdit)
	protected.POST("/posts/:post_id/delete/", postController.PostDelete)
	protected.POST("/posts/:post_id/comment/", postController.AddComment)
	protected.GET("/follow/", followController.FollowIndex)
	protected.GET("/profile/:username/follow/", followController.ProfileFollow)
	protected.POST("/profile/:username/follow/", followController.ProfileFollow)
	protected.GET("/profile/:username/unfollow/", followController.ProfileUnfollow)
	protected.POST("/profile/:username/unfollow/", followController.ProfileUnfollow)
	protected.GET("/groups/create/", groupController.GroupCreate)
	protected.POST("/groups/create/", groupController.GroupCreate)

	api := r.Group("/api/v1")
	api.GET("/posts", apiController.ListPosts)
	api.GET("/posts/:id", apiController.GetPost)
	api.GET("/groups", apiController.ListGroups)
	api.GET("/groups/:slug/posts", apiController.GroupPosts)
	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		view.NotFound(ctx)
	})

	return r, nil
}

func corsConfig(cfg config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}

// apiOnly runs h for /api/ requests and skips it for pages.
func apiOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			h(ctx)
		}
	}
}
