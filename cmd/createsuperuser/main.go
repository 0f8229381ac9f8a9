// Command createsuperuser creates an active, verified superuser account.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/postboard/blog-api/internal/bootstrap"
	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/pkg/config"
	"github.com/postboard/blog-api/pkg/logger"
)

const timeout = 30 * time.Second

// discardNotifier drops notifications; superuser creation sends none.
type discardNotifier struct{}

func (discardNotifier) Enqueue(ports.Notification) {}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	creds, err := newPrompter(os.Stdin, os.Stdout, int(os.Stdin.Fd())).credentials()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	sec, err := bootstrap.NewSecurity(cfg)
	if err != nil {
		return err
	}

	users := bootstrap.NewUserService(cfg, store, sec, discardNotifier{}, logger.Component("users"))
	account, err := users.CreateSuperuser(ctx, creds)
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		return fmt.Errorf("an account with email %s already exists", creds.Email)
	case errors.Is(err, domain.ErrInvalidPassword):
		return err
	case err != nil:
		return fmt.Errorf("create superuser: %w", err)
	}

	fmt.Printf("Superuser %s created (id %s)\n", account.Email, account.ID)
	return nil
}
