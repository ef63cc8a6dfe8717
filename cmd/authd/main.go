package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icomp-shop/customer-auth/pkg/authflow"
	"github.com/icomp-shop/customer-auth/pkg/authflow/api"
	"github.com/icomp-shop/customer-auth/pkg/config"
	"github.com/icomp-shop/customer-auth/pkg/customer"
	"github.com/icomp-shop/customer-auth/pkg/notification"
	"github.com/icomp-shop/customer-auth/pkg/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(-1)
	}

	repo, err := newRepository(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize customer store", "storage", cfg.Storage, "err", err)
		os.Exit(-1)
	}

	notifier, err := notification.NewEmailNotifier(cfg.EmailConfig.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed to create email notifier", "err", err)
		os.Exit(-1)
	}
	dispatcher := notification.NewDispatcher(notifier, cfg.ServerConfig.StoreURL)

	sessions := token.NewSessionService(cfg.JwtConfig.Secret)
	service := authflow.NewAuthFlowService(repo, sessions,
		authflow.WithDispatcher(dispatcher),
	)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.Secret), nil)
	handler := api.NewHandler(service, tokenAuth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	r.Mount("/store/custom/auth", handler.Routes())

	slog.Info("Starting customer auth service", "addr", cfg.ServerConfig.Addr, "storage", cfg.Storage)
	if err := http.ListenAndServe(cfg.ServerConfig.Addr, r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}

// newRepository selects the customer store backend. The in-memory store is
// for local development, Postgres is the production path.
func newRepository(ctx context.Context, cfg config.Config) (customer.Repository, error) {
	if cfg.Storage == "memory" {
		slog.Info("Using in-memory customer store")
		return customer.NewInMemoryCustomerRepository(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DbConfig.ConnString())
	if err != nil {
		return nil, err
	}

	repo := customer.NewPostgresCustomerRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
