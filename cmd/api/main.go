package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/imgsrv/imageserver/internal/config"
	"github.com/imgsrv/imageserver/internal/db"
	httpx "github.com/imgsrv/imageserver/internal/http"
	"github.com/imgsrv/imageserver/internal/observability"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/security"
	"github.com/imgsrv/imageserver/internal/store"
	"github.com/imgsrv/imageserver/internal/store/memory"
	"github.com/imgsrv/imageserver/internal/store/postgres"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	prom := observability.NewProm()

	// persistence: postgres when configured, in-memory otherwise
	var (
		st         store.Store
		tokenStore auth.TokenStore
		ping       func() error
	)

	if cfg.DBURL != "" {
		pool, err := db.NewPool(context.Background(), cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore := postgres.New(pool, prom)
		tokensRepo := postgres.NewTokensRepo(pool)

		mctx, cancel := config.WithTimeout(10 * time.Second)
		// users before posts: the posts table carries the owner FK
		for _, kind := range []schema.Kind{schema.KindUser, schema.KindPost} {
			if err := pgStore.Migrate(mctx, kind); err != nil {
				cancel()
				log.Error("migration failed", "kind", kind, "err", err)
				os.Exit(1)
			}
		}
		if err := tokensRepo.Migrate(mctx); err != nil {
			cancel()
			log.Error("migration failed", "kind", "tokens", "err", err)
			os.Exit(1)
		}
		cancel()

		st = pgStore
		tokenStore = tokensRepo
		ping = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}
	} else {
		log.Warn("no database configured, using in-memory store")
		st = memory.New()
		tokenStore = memory.NewTokenStore()
	}

	verifier := security.NewBcryptVerifier()
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL)
	authService := auth.NewService(tokenStore, st, jwtManager, cfg.TokenTTL)

	sctx, cancel := config.WithTimeout(5 * time.Second)
	if err := db.EnsureSeedUser(sctx, st, verifier, cfg); err != nil {
		log.Error("seed user failed", "err", err)
	}
	cancel()

	// optional redis for shared rate-limit counters
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		defer rdb.Close()
	}

	// optional tracing
	if cfg.TracingOn {
		shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(3 * time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	router := httpx.NewRouter(httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Store:    st,
		Auth:     authService,
		JWT:      jwtManager,
		Verifier: verifier,
		Prom:     prom,
		Redis:    rdb,
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
