package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/imgsrv/imageserver/internal/config"
	"github.com/imgsrv/imageserver/internal/domain/post"
	"github.com/imgsrv/imageserver/internal/domain/user"
	"github.com/imgsrv/imageserver/internal/http/handlers"
	"github.com/imgsrv/imageserver/internal/http/middlewares"
	"github.com/imgsrv/imageserver/internal/observability"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/security"
	"github.com/imgsrv/imageserver/internal/store"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Store    store.Store
	Auth     *auth.Service
	JWT      *auth.Manager
	Verifier security.Verifier
	Prom     *observability.Prom
	Redis    *redis.Client
	Ping     func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if d.Prom != nil {
		r.Use(d.Prom.HTTPMiddleware())
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	if d.Cfg.TracingOn {
		r.Use(otelgin.Middleware("imageserver"))
	}

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// diagnostics
	r.GET("/hello", handlers.Hello)
	r.GET("/plaintext", handlers.Plaintext)
	r.GET("/info", handlers.Info)
	r.GET("/description", handlers.Info)

	authMW := middlewares.NewAuthMiddleware(d.Auth)
	limiter := middlewares.NewRateLimiter(d.Cfg.RateLimit, d.Cfg.RateWindow, d.Redis)

	// auth
	authHandler := handlers.NewAuthHandler(d.Store, d.Auth, d.JWT, d.Verifier)

	authGroup := r.Group("/auth")
	authGroup.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authMW.RequireAuth(), authHandler.Logout)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	// posts resource; reads are public, writes need a bearer token
	postsHandler := handlers.NewResourceHandler(d.Store, handlers.Definition{
		Kind: schema.KindPost,
		New: func(w schema.Wire) (handlers.Entity, error) {
			p, err := post.New(w)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Load: func(row schema.Row) (handlers.Entity, error) {
			p, err := post.Load(row)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Prepare: func(ctx *gin.Context, e handlers.Entity) {
			if p, ok := e.(*post.Post); ok {
				if userID, ok := middlewares.UserIDFromContext(ctx); ok {
					p.UserID = userID
				}
			}
		},
	})

	r.GET("/posts", postsHandler.List)
	r.GET("/posts/:id", postsHandler.Show)

	postWrites := r.Group("/posts")
	postWrites.Use(authMW.RequireAuth(), limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	postWrites.POST("", postsHandler.Create)
	postWrites.PUT("/:id", postsHandler.Update)
	postWrites.PATCH("/:id", postsHandler.Update)
	postWrites.DELETE("/:id", postsHandler.Delete)

	// users resource; fully behind auth. Creation happens via signup only.
	usersHandler := handlers.NewResourceHandler(d.Store, handlers.Definition{
		Kind: schema.KindUser,
		New: func(w schema.Wire) (handlers.Entity, error) {
			u, err := user.New(w)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
		Load: func(row schema.Row) (handlers.Entity, error) {
			u, err := user.Load(row)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
	})

	users := r.Group("/users")
	users.Use(authMW.RequireAuth(), limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	users.GET("", usersHandler.List)
	users.GET("/:id", usersHandler.Show)
	users.PATCH("/:id", usersHandler.Update)
	users.PUT("/:id", usersHandler.Update)
	users.DELETE("/:id", usersHandler.Delete)

	return r
}
