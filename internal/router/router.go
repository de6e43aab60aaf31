package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"abserver/internal/handlers"
	"abserver/internal/middleware"
	"abserver/internal/services"
	"abserver/pkg/config"
	"abserver/pkg/jwt"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB, jwtManager *jwt.JWTManager) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SetupCORS(cfg.CORS))

	registerRoutes(router, cfg, db, jwtManager)
	registerStatic(router, cfg.Server.WebDir)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB, jwtManager *jwt.JWTManager) {
	userService := services.NewUserService(db)
	systemService := services.NewSystemService(db)
	accessService := services.NewAccessService(db)

	auth := middleware.NewAuthMiddleware(userService, jwtManager)
	loginLimiter := middleware.NewLoginRateLimiter(cfg.RateLimit)

	authHandler := handlers.NewAuthHandler(userService, systemService, jwtManager)
	systemHandler := handlers.NewSystemHandler(systemService)
	abHandler := handlers.NewAbHandler(accessService, services.NewShareService(db), services.NewLegacySyncService(db))
	peerHandler := handlers.NewPeerHandler(accessService, services.NewPeerService(db))
	tagHandler := handlers.NewTagHandler(accessService, services.NewTagService(db))
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(services.NewGroupService(db))
	bookHandler := handlers.NewAddressBookHandler(services.NewAddressBookService(db))

	api := router.Group("/api")
	{
		// 无需登录
		api.GET("/health", systemHandler.Health)
		api.POST("/login", loginLimiter.Middleware(), authHandler.Login)
		api.POST("/heartbeat", systemHandler.Heartbeat)
		api.POST("/system/heartbeat", systemHandler.Heartbeat)
		api.POST("/system/sysinfo", systemHandler.Sysinfo)
		api.POST("/audit", systemHandler.Audit)

		// RustDesk 客户端接口
		client := api.Group("", auth.RequireLogin())
		{
			client.POST("/logout", authHandler.Logout)
			client.GET("/currentUser", authHandler.CurrentUser)
			client.POST("/currentUser", authHandler.CurrentUser)

			client.GET("/ab", abHandler.GetLegacy)
			client.POST("/ab", abHandler.UpdateLegacy)
			client.GET("/ab/personal", abHandler.Personal)
			client.POST("/ab/personal", abHandler.Personal)
			client.GET("/ab/shared/profiles", abHandler.SharedProfiles)
			client.POST("/ab/shared/profiles", abHandler.SharedProfiles)
			client.GET("/ab/settings", abHandler.Settings)
			client.POST("/ab/settings", abHandler.Settings)

			client.GET("/ab/peers", peerHandler.List)
			client.POST("/ab/peers", peerHandler.List)
			client.POST("/ab/peer/add/:guid", peerHandler.Add)
			client.PUT("/ab/peer/update/:guid", peerHandler.Update)
			client.DELETE("/ab/peer/:guid", peerHandler.Delete)

			client.GET("/ab/tags/:guid", tagHandler.List)
			client.POST("/ab/tags/:guid", tagHandler.List)
			client.POST("/ab/tag/add/:guid", tagHandler.Add)
			client.PUT("/ab/tag/rename/:guid", tagHandler.Rename)
			client.PUT("/ab/tag/update/:guid", tagHandler.UpdateColor)
			client.DELETE("/ab/tag/:guid", tagHandler.Delete)
		}

		// 管理接口
		admin := api.Group("", auth.RequireLogin(), auth.RequireAdmin())
		{
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			admin.GET("/groups", groupHandler.List)
			admin.POST("/groups", groupHandler.Create)
			admin.PUT("/groups/:id", groupHandler.Update)
			admin.DELETE("/groups/:id", groupHandler.Delete)
			admin.GET("/groups/:id/members", groupHandler.Members)
			admin.POST("/groups/:id/members", groupHandler.AddMember)
			admin.DELETE("/groups/:id/members/:user_id", groupHandler.RemoveMember)

			admin.GET("/address-books", bookHandler.List)
			admin.POST("/address-books", bookHandler.Create)
			admin.DELETE("/address-books/:guid", bookHandler.Delete)
			admin.GET("/address-books/:guid/shares", bookHandler.Shares)
			admin.POST("/address-books/:guid/shares", bookHandler.Grant)
			admin.DELETE("/shares/:id", bookHandler.Revoke)
		}
	}
}

// registerStatic 从磁盘提供前端文件，找不到的非 API 路径回退到 index.html
func registerStatic(router *gin.Engine, webDir string) {
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/api" || webDir == "" {
			response.NotFound(c, "Not found")
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			response.NotFound(c, "Not found")
			return
		}

		if file, ok := staticFile(webDir, path); ok {
			c.File(file)
			return
		}
		if index, ok := staticFile(webDir, "/index.html"); ok {
			c.File(index)
			return
		}
		response.NotFound(c, "Not found")
	})
}

// staticFile 返回 webDir 下存在的普通文件，拒绝跳出目录的路径
func staticFile(webDir, urlPath string) (string, bool) {
	clean := filepath.Clean("/" + strings.TrimPrefix(urlPath, "/"))
	full := filepath.Join(webDir, filepath.FromSlash(clean))

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
