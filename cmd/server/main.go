package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/studio-lesson-booking/internal/booking"    // Booking engine
	"github.com/iliyamo/studio-lesson-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/studio-lesson-booking/internal/database"   // MySQL pool setup
	"github.com/iliyamo/studio-lesson-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/studio-lesson-booking/internal/middleware" // Rate limit and cache middleware
	"github.com/iliyamo/studio-lesson-booking/internal/queue"      // Notification consumer
	"github.com/iliyamo/studio-lesson-booking/internal/repository" // Data access layer
	"github.com/iliyamo/studio-lesson-booking/internal/router"     // Route registration
	"github.com/iliyamo/studio-lesson-booking/internal/service"    // Queue notifier
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the browse cache.  A nil client
	// degrades both to pass-through; bookings never depend on Redis.
	rdb := config.NewRedisClient()

	// Repositories
	members := repository.NewMemberRepo(db)
	tokens := repository.NewTokenRepo(db)
	lessons := repository.NewLessonRepo(db)
	groups := repository.NewTicketGroupRepo(db)
	tickets := repository.NewTicketRepo(db)
	reservations := repository.NewReservationRepo(db)
	waiting := repository.NewWaitingListRepo(db)

	// Booking engine with its transactional runner and the queue notifier.
	runner := booking.NewSQLRunner(db, lessons, tickets, reservations, waiting)
	notifier := service.NewQueueNotifier()
	engine := booking.NewEngine(runner, notifier, cfg.BookingTxTimeout, cfg.BookingRetries)

	// Background consumer writing notification logs.  It reconnects on
	// its own; a missing broker only costs the notification trail.
	go func() {
		if err := queue.StartNotifyConsumer(); err != nil {
			log.Printf("notify consumer stopped: %v", err)
		}
	}()

	// Handlers
	authH := handler.NewAuthHandler(cfg, members, tokens)
	publicH := handler.NewPublicHandler(lessons)
	memberH := handler.NewMemberHandler(engine, reservations, tickets, waiting)
	adminH := handler.NewAdminHandler(lessons, groups, tickets, members, reservations, waiting, engine)

	limiterMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cacheMW)
	router.RegisterMember(e, memberH, cfg.JWTSecret, limiterMW)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
