package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/youkaichao/WtfTicket/internal/admin/admin_api"
	"github.com/youkaichao/WtfTicket/internal/checkin"
	"github.com/youkaichao/WtfTicket/internal/config"
	"github.com/youkaichao/WtfTicket/internal/kafka"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/qr"
	"github.com/youkaichao/WtfTicket/internal/store"
)

// Standalone door scanner backend. Runs next to the bot service against
// the same database so check-in stays up even when the bot is down.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	_ = godotenv.Load()
	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		log.Fatal("DATABASE", "failed to open PostgreSQL: "+err.Error())
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "failed to connect to PostgreSQL: "+err.Error())
	}
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	db := &store.DB{Bun: bunDB}

	var events checkin.EventPublisher
	switch {
	case cfg.Kafka.MockMode:
		events = &kafka.MockPublisher{Logger: log}
	case cfg.Kafka.Enabled:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		events = producer
	}

	service := checkin.NewService(db, events, log)
	handler := admin_api.NewHandler(db, service, qr.NewGenerator(cfg.QR.SecretKey), log)

	r := chi.NewRouter()
	r.Route("/checkin", func(r chi.Router) {
		r.Post("/", handler.CheckInTicket)
		r.Post("/scan", handler.ScanTicket)
	})

	server := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP", "🚀 Check-in service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", "HTTP server error: "+err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("HTTP", "✅ Check-in service shutdown complete")
}
