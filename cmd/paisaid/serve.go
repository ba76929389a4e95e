package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/paisaid/paisaid-cms/internal/app"
	"github.com/paisaid/paisaid-cms/internal/audit"
	"github.com/paisaid/paisaid-cms/internal/auth"
	"github.com/paisaid/paisaid-cms/internal/content/categories"
	"github.com/paisaid/paisaid-cms/internal/content/posts"
	"github.com/paisaid/paisaid-cms/internal/content/tags"
	"github.com/paisaid/paisaid-cms/internal/master"
	"github.com/paisaid/paisaid-cms/internal/menus"
	"github.com/paisaid/paisaid-cms/internal/observability"
	"github.com/paisaid/paisaid-cms/internal/platform/cache"
	"github.com/paisaid/paisaid-cms/internal/platform/db"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/resources"
	"github.com/paisaid/paisaid-cms/internal/roles"
	"github.com/paisaid/paisaid-cms/internal/shared"
	"github.com/paisaid/paisaid-cms/internal/users"
	"github.com/paisaid/paisaid-cms/jobs"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := auth.NewTokenCodec(cfg.TokenConfig())
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	cookies := auth.NewCookieTransport(cfg.CookieConfig())
	gate := auth.NewGate(codec, cookies, logger)
	auditLogger := shared.NewAuditLogger(dbpool)

	rbacStore := rbac.NewPGStore(dbpool)
	roleCache := rbac.NewCachedStore(rbacStore, redisClient, cfg.RBACCacheTTL, logger)
	rbacMiddleware := rbac.Middleware{Resolver: rbac.NewResolver(roleCache), Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool), codec, auditLogger, logger)
	authHandler := auth.NewHandler(logger, authService, gate, cookies, auth.HandlerConfig{
		SignInLimit:      cfg.SignInRateLimit,
		ClearTokenSecret: cfg.ClearTokenSecret,
	})

	permissionsService := rbac.NewService(rbacStore, roleCache, auditLogger, logger)
	rolesService := roles.NewService(roles.NewRepository(dbpool), roleCache, auditLogger, logger)
	resourcesService := resources.NewService(resources.NewRepository(dbpool), auditLogger, logger)
	menusService := menus.NewService(menus.NewRepository(dbpool), auditLogger, logger)
	usersService := users.NewService(users.NewRepository(dbpool), roleCache, auditLogger, logger, users.Config{
		DefaultPassword: cfg.UserDefaultPassword,
	})

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	categoriesService := categories.NewService(categories.NewRepository(dbpool), auditLogger, logger)
	tagsService := tags.NewService(tags.NewRepository(dbpool), auditLogger, logger)
	postsService := posts.NewService(posts.NewRepository(dbpool), jobClient, auditLogger, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Gate:               gate,
		AuthHandler:        authHandler,
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		PermissionsHandler: rbac.NewHandler(logger, permissionsService, rbacMiddleware),
		ResourcesHandler:   resources.NewHandler(logger, resourcesService, rbacMiddleware),
		MenusHandler:       menus.NewHandler(logger, menusService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		AuditHandler:       audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware),
		CategoriesHandler:  categories.NewHandler(logger, categoriesService, rbacMiddleware),
		TagsHandler:        tags.NewHandler(logger, tagsService, rbacMiddleware),
		PostsHandler:       posts.NewHandler(logger, postsService, rbacMiddleware),
		MasterHandler:      master.NewHandler(logger, master.NewService(master.NewRepository(dbpool))),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
