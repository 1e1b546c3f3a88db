package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/notifier"
	"github.com/anonto42/nano-midea/notifier/internal/push"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/router"
	"github.com/anonto42/nano-midea/notifier/internal/watcher"
	"github.com/anonto42/nano-midea/notifier/pkg/config"
	"github.com/anonto42/nano-midea/notifier/pkg/firebase"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/anonto42/nano-midea/notifier/pkg/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	dotenv := config.LoadDotEnv()
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !dotenv {
		zl.Debug("no .env file found, assuming environment variables are set")
	}
	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Initialize Firebase
	var firebaseApp *firebase.App
	if cfg.NeedsFirebase() {
		firebaseApp, err = firebase.InitFirebase(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			ProjectID:       cfg.FirebaseProjectID,
			Firestore:       cfg.StoreBackend == config.BackendFirestore,
			Messaging:       cfg.PushEnabled,
		}, zl)
		if err != nil {
			zl.Fatal("failed to initialize firebase", zap.Error(err))
		}
		defer firebaseApp.Close()
	}

	// --- Initialize Repositories ---
	var store repositories.DocumentStore
	if cfg.StoreBackend == config.BackendMongo {
		store = repositories.NewMongoStore(db.Mongo.Database(cfg.MongoDatabase))
	} else {
		store = repositories.NewFirestoreStore(firebaseApp.Firestore)
	}
	userRepo := repositories.NewDocumentUserRepository(store)
	postRepo := repositories.NewDocumentPostRepository(store)

	var notificationRepo repositories.NotificationRepository = repositories.NewDocumentNotificationRepository(store)
	if cfg.NotificationSink == config.SinkPostgres {
		pgRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
		if err := pgRepo.Migrate(); err != nil {
			zl.Fatal("failed to auto migrate notifications", zap.Error(err))
		}
		zl.Info("PostgreSQL auto-migration completed for notifications")
		notificationRepo = pgRepo
	}

	// --- Push delivery ---
	var provider push.Provider = push.NewDisabledProvider(zl)
	if cfg.PushEnabled {
		provider = push.NewFCMProvider(firebaseApp.Messaging)
	}
	provider = push.NewThrottledProvider(provider, cfg.PushRatePerSec, cfg.PushBurst)

	// --- Notifier ---
	policy, err := notifier.ParseDeltaPolicy(cfg.DeltaPolicy)
	if err != nil {
		zl.Fatal("invalid delta policy", zap.Error(err))
	}
	pipeline := notifier.NewPipeline(
		notifier.NewResolver(userRepo, postRepo),
		notifier.NewWriter(notificationRepo, cfg.Dedupe),
		notifier.NewDispatcher(userRepo, provider, cfg.PushPruneStaleTokens, zl),
		policy,
		zl,
	)
	events := notifier.NewRouter(pipeline, notifier.NewCounterUpdater(postRepo), cfg.HandlerTimeout, zl)

	// --- Trigger auth ---
	var verifier middleware.TokenVerifier
	switch cfg.TriggerAuth {
	case config.AuthJWT:
		verifier = middleware.NewJWTVerifier(cfg.TriggerJWTSecret)
	case config.AuthOIDC:
		oidc, err := middleware.NewOIDCVerifier(ctx, cfg.TriggerAudience)
		if err != nil {
			zl.Fatal("failed to initialize OIDC verifier", zap.Error(err))
		}
		verifier = oidc
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, zl)
	router.SetupRoutes(e, router.Dependencies{Events: events, Verifier: verifier, Logger: zl})

	// --- Change stream watcher ---
	watchDone := make(chan struct{})
	if cfg.WatchChangeStreams {
		w, err := watcher.NewWatcher(db.Mongo.Database(cfg.MongoDatabase), events, cfg.WatchPoolSize, zl)
		if err != nil {
			zl.Fatal("failed to create change stream watcher", zap.Error(err))
		}
		go func() {
			defer close(watchDone)
			defer w.Close()
			if err := w.Run(ctx); err != nil {
				zl.Error("change stream watcher stopped", zap.Error(err))
				stop()
			}
		}()
	} else {
		close(watchDone)
	}

	// Start server
	go func() {
		zl.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.HandlerTimeout+5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server shutdown failed", zap.Error(err))
	}
	<-watchDone
}
