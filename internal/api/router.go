package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/postboard/blog-api/docs"
	"github.com/postboard/blog-api/internal/api/handler"
	"github.com/postboard/blog-api/internal/api/middleware"
	"github.com/postboard/blog-api/internal/core/ports"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Posts       ports.PostService
	Health      map[string]handler.Pinger
	CORSOrigins []string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if len(deps.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(echoprometheus.NewMiddleware("blog"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Users)
	userHandler := handler.NewUserHandler(deps.Users)
	postHandler := handler.NewPostHandler(deps.Posts)
	healthHandler := handler.NewHealthHandler(deps.Health)

	session := middleware.Session(deps.Auth)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/request-verify-token", authHandler.RequestVerifyToken)
	auth.POST("/verify", authHandler.Verify)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// --- Users ---
	me := e.Group("/users/me", session, middleware.RequireActive())
	me.GET("", userHandler.Me)
	me.PATCH("", userHandler.UpdateMe)

	admin := e.Group("/users", session, middleware.RequireSuperuser())
	admin.GET("", userHandler.List)
	admin.GET("/:id", userHandler.Get)
	admin.PATCH("/:id", userHandler.Update)
	admin.DELETE("/:id", userHandler.Delete)

	// --- Posts ---
	e.GET("/posts", postHandler.List)
	e.GET("/posts/:id", postHandler.Get)
	e.POST("/posts", postHandler.Create, session, middleware.RequireVerified())
	e.DELETE("/posts/:id", postHandler.Delete, session, middleware.RequireActive())

	// --- Operational ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
