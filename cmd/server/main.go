package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videotube/backend/internal/api"
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/cache"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/health"
	"github.com/videotube/backend/internal/logger"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/storage"
	"github.com/videotube/backend/internal/websocket"
)

var version = "dev"

func main() {
	cfg := config.MustLoad()

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	logger.SetDefault(log)
	defer log.Sync()

	apperrors.OnServerError(func(ctx context.Context, err *apperrors.AppError) {
		log.Error(ctx, "request failed", err)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info(ctx, "shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cancel, cfg, log); err != nil {
		log.Error(context.Background(), "server exited", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, log *logger.Logger) error {
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	accounts := db.NewAccountRepository(database)
	videos := db.NewVideoRepository(database)
	comments := db.NewCommentRepository(database)
	tweets := db.NewTweetRepository(database)
	playlists := db.NewPlaylistRepository(database)
	subscriptions := db.NewSubscriptionRepository(database)
	likes := db.NewLikeRepository(database)
	dashboard := db.NewDashboardRepository(database)

	m := metrics.New()

	store, err := storage.New(cfg.Media)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}
	media := m.InstrumentStore(store)

	// Redis only backs the stats cache; run without it when unset.
	var (
		stats       *api.StatsCache
		redisClient *redis.Client
	)
	if cfg.Redis.Addr != "" {
		c, err := cache.New(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn(ctx, "redis unavailable, stats cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer c.Close()
			stats = api.NewStatsCache(c, cfg.Redis.StatsCacheTTL)
			redisClient = c.Client()
		}
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	notifier := websocket.NewNotifier(hub, subscriptions)
	m.RegisterGaugeFunc("websocket_connections", "Open websocket connections.", func() float64 {
		return float64(hub.TotalClients())
	})

	maxUpload := cfg.Media.MaxUploadMB << 20
	tokens := auth.NewTokenService(accounts, auth.TokenConfig{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
	})
	authService := auth.NewService(accounts, tokens, media, cfg.Tokens.BcryptCost)

	checker := health.NewChecker(health.CheckerConfig{
		DB:           database.DB,
		Redis:        redisClient,
		StorageCheck: store.Ping,
		Version:      version,
	})
	healthHandler := health.NewHandler(checker)

	router := api.NewRouter(tokens, api.Handlers{
		Auth:          auth.NewHandlers(authService, auth.CookieConfig{Secure: cfg.Cookie.Secure, Domain: cfg.Cookie.Domain}, maxUpload),
		Videos:        api.NewVideoHandlers(videos, media, notifier, stats, maxUpload),
		Comments:      api.NewCommentHandlers(comments, videos),
		Tweets:        api.NewTweetHandlers(tweets, accounts, notifier),
		Playlists:     api.NewPlaylistHandlers(playlists, videos),
		Subscriptions: api.NewSubscriptionHandlers(subscriptions, accounts, stats),
		Dashboard:     api.NewDashboardHandlers(dashboard, videos, stats),
		Likes:         api.NewLikeHandlers(likes, videos, stats),
		Liveness:      healthHandler.Liveness,
		Readiness:     healthHandler.Readiness,
		Metrics:       m.Handler(),
		Websocket:     websocket.NewHandler(hub, tokens, cfg.HTTP.CORSOrigins).ServeWS,
	})

	compress, err := middleware.Compress()
	if err != nil {
		return err
	}
	handler := middleware.Chain(router,
		apperrors.RequestIDMiddleware,
		logger.Recovery(log),
		logger.Middleware(log),
		m.Middleware,
		middleware.CORS(cfg.HTTP.CORSOrigins),
		compress,
	)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info(ctx, "http server listening", map[string]interface{}{"addr": cfg.HTTP.Addr, "version": version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down http server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http server shutdown", err)
	}

	done := make(chan struct{})
	go func() {
		notifier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn(shutdownCtx, "gave up waiting for pending notifications")
	}

	log.Info(context.Background(), "server stopped")
	return nil
}
