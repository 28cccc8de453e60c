package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/auth"
	"github.com/atinyakov/CoverCatalog/internal/config"
	"github.com/atinyakov/CoverCatalog/internal/logger"
	"github.com/atinyakov/CoverCatalog/internal/repository"
	"github.com/atinyakov/CoverCatalog/internal/server/handler/http"
	"github.com/atinyakov/CoverCatalog/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout         = 5 * time.Second
	revocationPruneInterval = 10 * time.Minute
)

func run(ctx context.Context, options *config.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	zapLogger.Info("starting catalog server",
		zap.String("version", version),
		zap.String("build_date", buildDate),
	)

	// Credential table: users file if configured, built-in users otherwise.
	var creds *auth.CredentialStore
	var err error
	if options.UsersFile != "" {
		creds, err = auth.LoadCredentialStore(options.UsersFile)
	} else {
		creds, err = auth.NewDefaultCredentialStore(bcrypt.DefaultCost)
	}
	if err != nil {
		return fmt.Errorf("init credentials: %w", err)
	}

	secret := []byte(options.JWTSecret)
	if len(secret) == 0 {
		zapLogger.Warn("no JWT secret configured, generating a random one; tokens will not survive a restart")
		if secret, err = auth.GenerateSecret(); err != nil {
			return err
		}
	}

	revoked := auth.NewRevocationSet()
	codec := auth.NewTokenCodec(secret, revoked)
	auth.StartRevocationPruner(ctx, revoked, revocationPruneInterval, zapLogger)

	productRepo := repository.NewFileProductRepository(options.ProductsFile, zapLogger)

	authService := service.NewAuthService(creds, codec)
	productService := service.NewProductService(productRepo)

	authHandler := &http.AuthHandler{AuthService: authService, Logger: zapLogger}
	productHandler := &http.ProductHandler{ProductService: productService, Logger: zapLogger}

	router := http.NewRouter(authHandler, productHandler, zapLogger, http.RouterOptions{
		CORSOrigins: options.CORSOrigins,
		StaticDir:   options.StaticDir,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", options.Port),
			zap.String("products_file", options.ProductsFile),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		return err
	}
	zapLogger.Info("server stopped")
	return nil
}
