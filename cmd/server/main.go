package main // Entry point package

import (
	"context"
	"io"
	"time"

	"github.com/google/logger"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/config"
	"github.com/madresuerte/raffle-server/internal/database"
	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/middleware"
	"github.com/madresuerte/raffle-server/internal/queue"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set vars directly

	lg := logger.Init("raffle-server", true, false, io.Discard)
	defer lg.Close()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		logger.Fatalf("ensure schema: %v", err)
	}
	cancel()

	// Redis is optional; rate limiting and response caching degrade to
	// no-ops when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warning("redis unavailable; rate limiting and caching disabled")
	}
	loginLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	readCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	sellers := repository.NewSellerRepo(db)
	tickets := repository.NewTicketRepo(db, cfg.MaxTickets)
	prizes := repository.NewPrizeRepo(db)

	authH := handler.NewAuthHandler(cfg, sellers)
	ticketH := handler.NewTicketHandler(tickets)
	prizeH := handler.NewPrizeHandler(prizes, tickets)
	sellerH := handler.NewSellerHandler(cfg, sellers)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, loginLimiter)
	router.RegisterSeller(e, ticketH, cfg.JWTSecret, readCache)
	router.RegisterAdmin(e, ticketH, prizeH, sellerH, cfg.JWTSecret)
	router.RegisterPublic(e, prizeH, sellerH, readCache)

	// Audit consumer for issued tickets; reconnects forever on its own.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			logger.Warningf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	logger.Infof("listening on %s (env=%s, max_tickets=%d)", addr, cfg.Env, cfg.MaxTickets)

	if err := e.Start(addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
