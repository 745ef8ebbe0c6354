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

	"github.com/chachabrian/kwikliner/internal/config"
	"github.com/chachabrian/kwikliner/internal/database"
	"github.com/chachabrian/kwikliner/internal/handlers"
	"github.com/chachabrian/kwikliner/internal/listings"
	"github.com/chachabrian/kwikliner/internal/logger"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/chachabrian/kwikliner/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := services.NewHub(logg)
	go hub.Run(ctx)

	client := listings.NewClient(cfg.Listings.BaseURL, cfg.Listings.Timeout, logg)

	opts := []negotiation.Option{negotiation.WithObserver(hub)}
	notifiers := services.MultiNotifier{hub}
	deps := handlers.Dependencies{Hub: hub, JWTSecret: cfg.JWT.Secret, Logger: logg}

	if cfg.Database.Enabled() {
		db, err := database.InitDB(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to initialize database", zap.Error(err))
		}

		sqlDB, err := db.DB()
		if err != nil {
			logg.Fatal("Failed to get database instance", zap.Error(err))
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		defer sqlDB.Close()

		journal := database.NewJournal(db)
		tokens := database.NewDeviceTokens(db)
		opts = append(opts, negotiation.WithJournal(journal))
		deps.Journal = journal
		deps.Tokens = tokens

		messagingClient, err := services.InitFirebase(ctx, cfg.Firebase.ServiceAccountPath, logg)
		if err != nil {
			logg.Warn("Firebase initialization failed, push notifications disabled", zap.Error(err))
		} else if messagingClient != nil {
			notifiers = append(notifiers, services.NewPushNotifier(messagingClient, tokens, logg))
		}
	} else {
		logg.Warn("DB_HOST not set, negotiation journal and push notifications disabled")
	}
	opts = append(opts, negotiation.WithNotifier(notifiers))

	redisClient, err := services.InitRedis(ctx, cfg.Redis.URL)
	switch {
	case err == nil:
		defer redisClient.Close()
		opts = append(opts, negotiation.WithPublisher(services.NewRedisPublisher(redisClient)))
		if cfg.Lock.Backend == "redis" {
			opts = append(opts, negotiation.WithLocker(services.NewRedisLocker(redisClient, cfg.Lock.TTL, logg)))
		}
		go func() {
			err := services.SubscribeLoadUpdates(ctx, redisClient, logg, func(u services.LoadUpdate) {
				hub.BroadcastToAll(services.MessageLoadUpdated, u)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logg.Warn("load update subscription stopped", zap.Error(err))
			}
		}()
	case cfg.Lock.Backend == "redis":
		logg.Fatal("Failed to initialize Redis", zap.Error(err))
	default:
		logg.Warn("Redis unavailable, load updates are not shared between replicas", zap.Error(err))
	}

	deps.Negotiator = negotiation.NewNegotiator(client, negotiation.NewSessionStore(), logg, opts...)
	if cfg.Listings.FeedURL != "" {
		deps.Feed = listings.NewFeed(cfg.Listings.FeedURL, logg)
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	handlers.SetupRouter(r, deps)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logg.Info("KwikLiner driver API listening", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal("Failed to start server", zap.Error(err))
	}
}
