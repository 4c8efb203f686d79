package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/youkaichao/WtfTicket/internal/admin/admin_api"
	"github.com/youkaichao/WtfTicket/internal/auth"
	"github.com/youkaichao/WtfTicket/internal/booking"
	bookingredis "github.com/youkaichao/WtfTicket/internal/booking/redis"
	"github.com/youkaichao/WtfTicket/internal/bot"
	"github.com/youkaichao/WtfTicket/internal/bot/bot_api"
	"github.com/youkaichao/WtfTicket/internal/checkin"
	"github.com/youkaichao/WtfTicket/internal/config"
	"github.com/youkaichao/WtfTicket/internal/kafka"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/qr"
	"github.com/youkaichao/WtfTicket/internal/store"
	"github.com/youkaichao/WtfTicket/internal/users/user_api"
)

func connectPostgres(cfg *config.Config, log *logger.Logger) *bun.DB {
	dsn := cfg.PostgresDSN()

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL not reachable: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ticket bot service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx := context.Background()

	bunDB := connectPostgres(cfg, log)
	defer bunDB.Close()

	db := &store.DB{Bun: bunDB}

	var lock booking.BookingLock
	if cfg.Redis.Enabled {
		redisClient := connectRedis(ctx, cfg, log)
		defer redisClient.Close()
		lock = bookingredis.NewLock(redisClient, log)
	} else {
		log.Warn("REDIS", "Redis disabled, duplicate-tap guard is off")
	}

	var bookingEvents booking.EventPublisher
	var checkinEvents checkin.EventPublisher
	switch {
	case cfg.Kafka.MockMode:
		mock := &kafka.MockPublisher{Logger: log}
		bookingEvents, checkinEvents = mock, mock
		log.Info("KAFKA", "Kafka in mock mode, events are logged only")
	case cfg.Kafka.Enabled:
		topics := []string{
			cfg.Kafka.Topics.TicketIssued,
			cfg.Kafka.Topics.TicketCancelled,
			cfg.Kafka.Topics.TicketCheckedIn,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		bookingEvents, checkinEvents = producer, producer
		log.Info("KAFKA", "Kafka producer initialized successfully")
	default:
		log.Warn("KAFKA", "Kafka disabled, ticket lifecycle events are not published")
	}

	bookingService := booking.NewService(db, db, lock, bookingEvents, log)
	checkinService := checkin.NewService(db, checkinEvents, log)

	if cfg.QR.SecretKey == "" {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, ticket QR payloads use a derived default key")
	}
	qrGenerator := qr.NewGenerator(cfg.QR.SecretKey)

	router := bot.NewRouter(&bot.Deps{
		Users:      db,
		Activities: db,
		Tickets:    db,
		Booking:    bookingService,
		Logger:     log,
		SiteURL:    cfg.Server.SiteURL,
		Now:        time.Now,
	})

	botHandler := bot_api.NewHandler(router, log)
	userHandler := user_api.NewHandler(db, qrGenerator, log)
	adminHandler := admin_api.NewHandler(db, checkinService, qrGenerator, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Bot webhook ---
	r.Post("/wechat/message", botHandler.HandleMessage)
	log.Info("ROUTER", "Bot webhook registered at /wechat/message")

	// --- User-facing pages behind the reply cards ---
	r.Get("/bind", userHandler.GetBinding)
	r.Post("/bind", userHandler.Bind)
	r.Get("/activity", userHandler.GetActivityDetail)
	r.Get("/ticket", userHandler.GetTicketDetail)
	log.Info("ROUTER", "User routes registered at /bind, /activity, /ticket")

	// --- Admin API ---
	r.Group(func(r chi.Router) {
		if cfg.Auth.OIDCIssuer != "" {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
			log.Info("AUTH", "OIDC middleware applied to admin routes")
		} else {
			log.Warn("AUTH", "OIDC_ISSUER not set, admin routes are unauthenticated")
		}

		r.Route("/admin", func(r chi.Router) {
			r.Get("/activity", adminHandler.ListActivities)
			r.Post("/activity", adminHandler.CreateActivity)
			r.Put("/activity/{activityID}", adminHandler.UpdateActivity)
			r.Delete("/activity/{activityID}", adminHandler.DeleteActivity)
			r.Post("/checkin", adminHandler.CheckInTicket)
			r.Post("/checkin/scan", adminHandler.ScanTicket)
		})
	})
	log.Info("ROUTER", "Admin routes registered under /admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Ticket bot service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Ticket bot service shutdown complete")
	}
}
