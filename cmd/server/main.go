package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/config"
    "github.com/iliyamo/uniscape-booking/internal/database"
    "github.com/iliyamo/uniscape-booking/internal/handler"
    "github.com/iliyamo/uniscape-booking/internal/middleware"
    "github.com/iliyamo/uniscape-booking/internal/queue"
    "github.com/iliyamo/uniscape-booking/internal/repository"
    "github.com/iliyamo/uniscape-booking/internal/router"
    "github.com/iliyamo/uniscape-booking/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs rate limiting and the public catalogue cache. A nil
    // client disables both rather than blocking startup.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: rate limiting and response cache disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    trips := repository.NewTripRepo(db)
    transport := repository.NewTransportRepo(db)
    bookings := repository.NewBookingRepo(db)
    ledger := repository.NewLedgerRepo(db)
    refunds := repository.NewRefundRepo(db)

    notifier := queue.NewPublisher()
    go queue.StartNotificationConsumer()

    bookingSvc := &service.BookingService{
        DB:        db,
        Users:     users,
        Trips:     trips,
        Transport: transport,
        Bookings:  bookings,
        Ledger:    ledger,
        Refunds:   refunds,
        Notifier:  notifier,
    }
    refundSvc := &service.RefundService{
        DB:        db,
        Users:     users,
        Trips:     trips,
        Transport: transport,
        Bookings:  bookings,
        Ledger:    ledger,
        Refunds:   refunds,
        Notifier:  notifier,
    }
    walletSvc := &service.WalletService{
        DB:       db,
        Users:    users,
        Ledger:   ledger,
        Notifier: notifier,
    }

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, ledger, notifier), cfg.JWTSecret)
    router.RegisterPublic(e, handler.NewPublicHandler(trips, transport))
    router.RegisterStudent(e,
        handler.NewBookingHandler(bookingSvc),
        handler.NewWalletHandler(walletSvc),
        cfg.JWTSecret)
    router.RegisterAdmin(e,
        handler.NewAdminCatalogueHandler(trips, transport, bookings),
        handler.NewAdminQueueHandler(refundSvc, walletSvc, users),
        cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
