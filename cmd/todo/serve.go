package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Brajnn/ToDoAPI/internal/config"
	"github.com/Brajnn/ToDoAPI/internal/docs"
	"github.com/Brajnn/ToDoAPI/internal/health"
	handlers "github.com/Brajnn/ToDoAPI/internal/http"
	"github.com/Brajnn/ToDoAPI/internal/repository"
	"github.com/Brajnn/ToDoAPI/internal/service"
	"github.com/Brajnn/ToDoAPI/internal/validation"
	"github.com/Brajnn/ToDoAPI/shared/logger"
)

const shutdownTimeout = 10 * time.Second

// openStore открывает хранилище по cfg.DB.Driver. Для SQL-хранилищ возвращается и сам SQL-репозиторий (для миграций).
func openStore(cfg *config.Config) (repository.TodoRepository, *repository.SQLTodoRepository, io.Closer, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		return repository.NewMemoryTodoRepository(), nil, nopCloser{}, nil
	case config.DriverPostgres, config.DriverSQLite:
		sqlRepo, err := repository.NewSQLTodoRepository(repository.Dialect(cfg.DB.Driver), cfg.DB.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlRepo, sqlRepo, sqlRepo, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database driver: %q", cfg.DB.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Logger

	repo, sqlRepo, closer, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closer.Close()

	if sqlRepo != nil {
		if err := repository.NewMigrator(sqlRepo.DB(), sqlRepo.Dialect(), log).Up(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	todoService := service.NewTodoService(repo)
	todoHandler := handlers.NewTodoHandler(todoService, validation.New(), log)

	routerCfg := handlers.RouterConfig{Todos: todoHandler, Health: repo}
	if cfg.IsDevelopment() {
		docsHandler, err := docs.NewHandler()
		if err != nil {
			return err
		}
		routerCfg.Docs = docsHandler
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer := health.NewGRPCServer(repo, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		log.WithField("port", cfg.GRPCPort).Info("gRPC health server starting")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.HTTPPort,
			"driver": cfg.DB.Driver,
			"env":    cfg.Env,
		}).Info("todo service starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down todo service...")
	case err = <-errCh:
		log.WithError(err).Error("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("http server shutdown")
	}
	grpcServer.GracefulStop()
	return err
}
