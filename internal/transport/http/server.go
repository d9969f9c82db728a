package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	appsvc "adminpanel/internal/app"
	"adminpanel/internal/bootstrap"
	"adminpanel/internal/repository"
	"adminpanel/internal/storage"
	"adminpanel/internal/transport/http/handler"
	"adminpanel/internal/transport/http/inertia"
	"adminpanel/internal/transport/http/middleware"
	"adminpanel/internal/validation"
)

// NewRouter wires the services onto a gin engine. The returned handler applies
// method override before routing.
func NewRouter(app *bootstrap.App) http.Handler {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	pages := inertia.NewRenderer(cfg.App.Name, cfg.App.AssetsVersion)
	router.SetHTMLTemplate(pages.Template())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	if local, ok := app.Store.(*storage.LocalStore); ok {
		router.Static(publicPath(cfg.Storage.PublicURL), local.Dir())
	}

	validator := validation.New()
	userRepo := repository.NewUserRepository(app.DB)
	postRepo := repository.NewPostRepository(app.DB)
	userService := appsvc.NewUserService(userRepo, validator, cfg.Pagination.UsersPerPage)
	postService := appsvc.NewPostService(postRepo, app.Store, app.Cleaner, validator,
		cfg.Pagination.PostsPerPage, cfg.Upload.MaxPictureBytes)
	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, pages, app.Flash)
	postHandler := handler.NewPostHandler(postService, pages, app.Flash)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)

	admin := router.Group("/")
	admin.Use(middleware.FlashSession())
	if cfg.Auth.Required {
		admin.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))
	}
	RegisterResourceRoutes(admin, userHandler, postHandler)

	return middleware.MethodOverride(router)
}

func RegisterResourceRoutes(group *gin.RouterGroup, users *handler.UserHandler, posts *handler.PostHandler) {
	group.GET("/users", users.Index)
	group.POST("/users", users.Store)
	group.PUT("/users/:id", users.Update)
	group.PATCH("/users/:id", users.Update)
	group.DELETE("/users/:id", users.Destroy)

	group.GET("/posts", posts.Index)
	group.POST("/posts", posts.Store)
	group.PUT("/posts/:id", posts.Update)
	group.PATCH("/posts/:id", posts.Update)
	group.DELETE("/posts/:id", posts.Destroy)
}

func publicPath(publicURL string) string {
	parsed, err := url.Parse(publicURL)
	if err != nil || parsed.Path == "" {
		return "/storage"
	}
	return parsed.Path
}
