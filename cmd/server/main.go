package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laundry-room-reservation/internal/config"
	"github.com/iliyamo/laundry-room-reservation/internal/database"
	"github.com/iliyamo/laundry-room-reservation/internal/handler"
	"github.com/iliyamo/laundry-room-reservation/internal/middleware"
	"github.com/iliyamo/laundry-room-reservation/internal/queue"
	"github.com/iliyamo/laundry-room-reservation/internal/repository"
	"github.com/iliyamo/laundry-room-reservation/internal/router"
	"github.com/iliyamo/laundry-room-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db)

	bookingSvc := service.NewBookingService(bookings)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	bookingHandler := handler.NewBookingHandler(bookingSvc)

	// Redis is optional; a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, bookingHandler)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterBookings(e, bookingHandler, cfg.JWTSecret, config.LoadCacheConfig(), rdb)

	// Audit consumer runs for the lifetime of the process and
	// reconnects on its own.
	go queue.StartBookingConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
