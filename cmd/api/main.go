package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/IgnacioAroza/reservation-api/internal/adapter/cache"
	"github.com/IgnacioAroza/reservation-api/internal/bootstrap"
	"github.com/IgnacioAroza/reservation-api/internal/config"
	httptransport "github.com/IgnacioAroza/reservation-api/internal/http"
	"github.com/IgnacioAroza/reservation-api/internal/http/handler"
	httpmiddleware "github.com/IgnacioAroza/reservation-api/internal/http/middleware"
	"github.com/IgnacioAroza/reservation-api/internal/jwt"
	apimiddleware "github.com/IgnacioAroza/reservation-api/internal/middleware"
	"github.com/IgnacioAroza/reservation-api/internal/password"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
	"github.com/IgnacioAroza/reservation-api/internal/server"
	"github.com/IgnacioAroza/reservation-api/internal/service"
	"github.com/IgnacioAroza/reservation-api/internal/telemetry"
	"github.com/IgnacioAroza/reservation-api/internal/tenant"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newCompanyRepository,
			newRedisClient,
			newCacheStore,
			newResolver,
			newHasher,
			newTokenGenerator,
			newAuthService,
			newCompanyService,
			newUserService,
			newAuthMiddleware,
			newRateLimiter,
			newHandlers,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, migrate, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	return node, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newCompanyRepository(pool *pgxpool.Pool) repository.CompanyRepository {
	return repository.NewPostgresCompanyRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newCacheStore(client redis.UniversalClient, node *snowflake.Node) *cacheadapter.RedisStore {
	return cacheadapter.NewRedisStore(client, node)
}

func newResolver(companies repository.CompanyRepository) *tenant.Resolver {
	return tenant.NewResolver(companies)
}

func newHasher(cfg config.Config) *password.Hasher {
	return password.NewHasher(cfg.PasswordCost)
}

func newTokenGenerator(cfg config.Config) (*jwt.Generator, error) {
	key, err := jwt.NewSigningKey(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	return jwt.NewGenerator(key, cfg.JWTTTL, cfg.JWTIssuer, time.Now), nil
}

func newAuthService(users repository.UserRepository, resolver *tenant.Resolver, hasher *password.Hasher, tokens *jwt.Generator, logger *zap.Logger) *service.AuthService {
	return service.NewAuthService(users, resolver, hasher, tokens, logger)
}

func newCompanyService(cfg config.Config, companies repository.CompanyRepository, resolver *tenant.Resolver, locks *cacheadapter.RedisStore, logger *zap.Logger) *service.CompanyService {
	return service.NewCompanyService(companies, resolver, locks, cfg.LockTTL, logger)
}

func newUserService(users repository.UserRepository, resolver *tenant.Resolver, hasher *password.Hasher, logger *zap.Logger) *service.UserService {
	return service.NewUserService(users, resolver, hasher, logger)
}

func newAuthMiddleware(authService *service.AuthService) *httpmiddleware.Auth {
	return httpmiddleware.NewAuth(authService)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newHandlers(auth *service.AuthService, companies *service.CompanyService, users *service.UserService, pool *pgxpool.Pool, cache *cacheadapter.RedisStore) httptransport.Handlers {
	return httptransport.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Companies: handler.NewCompanyHandler(companies),
		Users:     handler.NewUserHandler(users),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis":    cache,
		}),
	}
}

func migrate(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) {
	if !cfg.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repository.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info("database schema applied")
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, logger *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
