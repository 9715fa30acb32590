package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf_api/internal/api"
	"bookshelf_api/internal/app/service"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/domain/repository"
	"bookshelf_api/internal/platform/cache"
	"bookshelf_api/internal/platform/config"
	"bookshelf_api/internal/platform/database"
	"bookshelf_api/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load Configuration
	cfg, dotenv, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if !dotenv {
		log.Debug("No .env file found, using environment only")
	}
	log.WithField("store", cfg.StoreDriver).Info("Configuration loaded.")

	ctx := context.Background()

	// 2. Initialize JWT
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Repositories
	var (
		userRepo repository.UserRepository
		bookRepo repository.BookRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("Failed to apply schema")
		}
		log.Info("Database connected.")
		userRepo = repository.NewPgUserRepository(db)
		bookRepo = repository.NewPgBookRepository(db)
	default:
		users := repository.NewMemoryUserRepository()
		userRepo = users
		bookRepo = repository.NewMemoryBookRepository(users)
		log.Warn("Using in-memory store, data is lost on restart")
	}

	// 4. Initialize Redis
	var genres cache.GenreCache = cache.Nop{}
	if cfg.CacheEnabled() {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		defer rdb.Close()
		genres = cache.NewRedisGenreCache(rdb, cfg.GenreCacheTTL)
		log.Info("Redis connected.")
	}

	// 5. Initialize Services
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo)
	bookService := service.NewBookService(bookRepo, genres, log)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, bookService, log)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		log.WithError(err).Errorf("Could not listen on %s", cfg.APIPort)
		return
	}

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
		return
	}
	log.Info("Server stopped gracefully.")
}
