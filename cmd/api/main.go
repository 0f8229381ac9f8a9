package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/api"
	"github.com/postboard/blog-api/internal/api/handler"
	"github.com/postboard/blog-api/internal/bootstrap"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/core/service"
	"github.com/postboard/blog-api/internal/infrastructure/db/redis"
	"github.com/postboard/blog-api/internal/infrastructure/mail"
	"github.com/postboard/blog-api/internal/infrastructure/queue"
	"github.com/postboard/blog-api/internal/pkg/config"
	"github.com/postboard/blog-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title						Blog API
// @version					1.0
// @description				Blog backend with account management and bearer-token sessions.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "blog-api",
	})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("store connected")

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	sec, err := bootstrap.NewSecurity(cfg)
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, newMailer(cfg), logger.Component("notify"))
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workersCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	authService, err := service.NewAuthService(store.Accounts, sec.Hasher, sec.Tokens, service.AuthOptions{
		TokenTTL:      cfg.Auth.AccessTokenTTL(),
		RehashOnLogin: cfg.Auth.RehashOnLogin,
	}, logger.Component("auth"))
	if err != nil {
		return err
	}
	userService := bootstrap.NewUserService(cfg, store, sec, dispatcher, logger.Component("users"))
	idempotency := redis.NewIdempotencyStore(rdb, time.Duration(cfg.Redis.IdempotencyTTL)*time.Second)
	postService := service.NewPostService(store.Posts, idempotency, logger.Component("posts"))

	e := api.NewRouter(api.Dependencies{
		Auth:  authService,
		Users: userService,
		Posts: postService,
		Health: map[string]handler.Pinger{
			"store": handler.PingFunc(store.Ping),
			"redis": handler.PingFunc(redis.Pinger(rdb)),
		},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newMailer(cfg *config.Config) ports.Mailer {
	if cfg.Mail.Server == "" {
		return mail.NewLogMailer(logger.Component("mail"))
	}
	return mail.NewSMTPMailer(mail.Config{
		Host:        cfg.Mail.Server,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		From:        cfg.Mail.From,
		FromName:    cfg.Mail.FromName,
		FrontendURL: cfg.FrontendURL,
	})
}
