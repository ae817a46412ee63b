// Package main is the entry point for the alcoholdb API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcoholdb/internal/cache"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/config"
	"alcoholdb/internal/database"
	"alcoholdb/internal/docstore"
	"alcoholdb/internal/events"
	"alcoholdb/internal/handlers"
	"alcoholdb/internal/moderation"
	"alcoholdb/internal/recommend"
	"alcoholdb/internal/router"
	"alcoholdb/internal/session"
	"alcoholdb/internal/storage"
	"alcoholdb/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"catalog_backend", cfg.CatalogBackend,
	)

	// Everything up to ListenAndServe shares one startup deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN(), cfg.DBPool())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the admin account in development (no-op if it already exists).
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + response cache).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	sessionStore := session.NewStore(valkeyClient, !cfg.IsDev())
	jsonCache := cache.NewJSONCache(valkeyClient, cache.DefaultTTL)

	// Relational stores. Users, reviews, social data, tags and taxonomy
	// always live in PostgreSQL.
	userStore := store.NewUserStore(db)
	socialStore := store.NewSocialStore(db)
	reviewStore := store.NewReviewStore(db)
	tagStore := store.NewTagStore(db)
	taxonomyStore := store.NewTaxonomyStore(db)
	errorStore := store.NewReportedErrorStore(db)

	// Catalogue backend: categories and items.
	var (
		categories catalog.CategoryBackend
		items      catalog.ItemBackend
	)
	switch cfg.CatalogBackend {
	case config.BackendMongo:
		mongoClient, mdb, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			slog.Error("failed to connect to mongo", "error", err)
			os.Exit(1)
		}
		defer mongoClient.Disconnect(context.Background())
		if err := docstore.EnsureIndexes(ctx, mdb); err != nil {
			slog.Error("failed to create mongo indexes", "error", err)
			os.Exit(1)
		}
		if err := docstore.SeedCore(ctx, mdb); err != nil {
			slog.Error("failed to seed core category", "error", err)
			os.Exit(1)
		}
		categories = docstore.NewCategoryStore(mdb)
		items = docstore.NewAlcoholStore(mdb, tagStore)
	default:
		if err := database.SeedCore(db); err != nil {
			slog.Error("failed to seed core category", "error", err)
			os.Exit(1)
		}
		categories = store.NewCategoryStore(db)
		items = store.NewAlcoholStore(db)
	}

	// Object storage for item images (optional).
	var images *storage.Images
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		images = storage.NewImages(storageClient)
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	// Collaborators.
	publisher := events.NewKafka(cfg.KafkaBroker)
	defer publisher.Close()

	var moderator catalog.Moderator
	if m := moderation.New(cfg.ModerationURL, cfg.ModerationTimeout); m != nil {
		moderator = m
	} else {
		slog.Warn("moderation service not configured, reviews are not screened")
	}

	recommender := recommend.New(cfg.RecommendURL, jsonCache)

	// Domain services.
	editor := catalog.NewEditor(categories)
	agg := catalog.NewAggregator(items, userStore)
	itemService := catalog.NewItemService(items, editor, agg, reviewStore, socialStore)
	itemService.SetRefChecker(taxonomyStore)
	if images != nil {
		itemService.SetImageStore(images)
	}
	reviewService := catalog.NewReviewService(reviewStore, items, agg, moderator, publisher)
	accountService := catalog.NewAccountService(reviewStore, agg,
		store.AccountCleanup{SocialStore: socialStore, UserStore: userStore}, sessionStore)

	// Make sure a validator matching the categories is installed.
	if _, _, err := editor.Validator(ctx); err != nil {
		slog.Error("failed to load item validator", "error", err)
		os.Exit(1)
	}
	cancel()

	api := handlers.New(handlers.Deps{
		Users:       userStore,
		Social:      socialStore,
		Reviews:     reviewStore,
		Tags:        tagStore,
		Taxonomy:    taxonomyStore,
		Errors:      errorStore,
		Sessions:    sessionStore,
		Editor:      editor,
		Items:       itemService,
		ReviewSvc:   reviewService,
		Accounts:    accountService,
		Images:      images,
		Recommender: recommender,
		Cache:       jsonCache,
	})
	editor.OnChange(api.InvalidateCategories)

	// Set up the Chi router with all middleware and routes.
	opts := router.DefaultOptions()
	opts.CORSOrigins = cfg.CORSOrigins
	r := router.New(api, sessionStore, userStore, opts)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
