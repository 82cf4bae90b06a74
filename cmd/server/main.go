package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Tyrowin/bugtracker/internal/api"
	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/config"
	"github.com/Tyrowin/bugtracker/internal/database"
	"github.com/Tyrowin/bugtracker/internal/repository"
	"github.com/Tyrowin/bugtracker/internal/server"
	"github.com/Tyrowin/bugtracker/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	addr := pflag.String("addr", "", "listen address, overrides server.port")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Port = *addr
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepos()

	hub := server.NewHub()
	go hub.Run()
	slog.Info("hub started")

	var layer server.ChannelLayer = hub
	if cfg.Redis.URL != "" {
		redisClient, err := server.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		redisLayer := server.NewRedisLayer(redisClient, cfg.Redis.Channel, hub)
		if err := redisLayer.Start(ctx); err != nil {
			return err
		}
		defer redisLayer.Close()
		layer = redisLayer
	}

	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	svcs := service.New(repos, tokens, server.NewNotifier(layer))

	handler := server.SetupRoutes(api.Services{
		Auth:       svcs.Auth,
		Projects:   svcs.Projects,
		Bugs:       svcs.Bugs,
		Comments:   svcs.Comments,
		Activities: svcs.Activities,
	}, server.NewSockets(hub, layer, svcs.Auth, repos.Projects, cfg.Server))

	httpServer := server.CreateServer(cfg.Server.Port, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownErr := server.ShutdownServer(httpServer, cfg.Server.ShutdownTimeout)
	hubErr := hub.Shutdown(cfg.Server.ShutdownTimeout)
	return errors.Join(shutdownErr, hubErr)
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (repository.Repositories, func(), error) {
	if cfg.Driver == config.DriverMemory {
		slog.Warn("using in-memory storage; data is lost on exit")
		return repository.NewMemoryRepositories(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return repository.Repositories{}, nil, err
		}
	}
	return repository.NewPostgresRepositories(pool), pool.Close, nil
}
