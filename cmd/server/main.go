package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/config"
	"github.com/iliyamo/bus-ticket-reservation/internal/database"
	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/metrics"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository/memstore"
	"github.com/iliyamo/bus-ticket-reservation/internal/router"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

// stores bundles what the services need from the selected backend.
type stores struct {
	seats      service.SeatStore
	passengers service.PassengerStore
	ping       handler.PingFunc
	close      func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("dev")
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Init(cfg.Env)
	defer func() { _ = logger.Sync() }()

	st, err := openStores(cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() { _ = st.close() }()

	if !cfg.AdminConfigured() {
		logger.Warn("ADMIN_USERNAME and ADMIN_PASSWORD(_HASH) are not set; reset is disabled")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}
	cacheCfg := config.LoadCacheConfig()
	purger := middleware.NewCachePurger(cacheCfg, rdb)

	m := metrics.New()

	var events service.EventPublisher
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AuditConsumer {
		consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogPath)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	directory := service.NewDirectory(st.passengers, m)
	booking := service.NewBooking(st.seats, directory, events, m)
	tickets := service.NewTickets(st.seats, st.passengers)
	reset := service.NewReset(st.seats, service.AdminCredentials{
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}, events, m)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Prometheus(m))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(cacheCfg, rdb)

	router.RegisterRoutes(e)
	router.RegisterHealth(e, handler.NewHealthHandler(st.ping))
	router.RegisterTickets(e, handler.NewTicketHandler(booking, tickets, purger, cfg.StoreTimeout), limit, cache)
	router.RegisterAdmin(e, handler.NewAdminHandler(reset, purger, cfg.AdminJWTSecret, cfg.AdminTokenTTLMin, 0), cfg.AdminJWTSecret, limit)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func openStores(cfg config.Config) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		s := memstore.New()
		return stores{
			seats:      s.Seats(),
			passengers: s.Passengers(),
			ping:       s.Ping,
			close:      func() error { return nil },
		}, nil
	case config.DriverMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return stores{}, err
		}
		if cfg.DBMigrate {
			if err := database.Migrate(db); err != nil {
				_ = db.Close()
				return stores{}, err
			}
		}
		return stores{
			seats:      repository.NewSeatRepo(db),
			passengers: repository.NewPassengerRepo(db),
			ping:       db.PingContext,
			close:      db.Close,
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
