package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/database"
	"github.com/iliyamo/library-seat-booking/internal/handler"
	"github.com/iliyamo/library-seat-booking/internal/logger"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/router"
	"github.com/iliyamo/library-seat-booking/internal/service"
	"github.com/iliyamo/library-seat-booking/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
		database.Pool{MaxOpen: cfg.DBMaxOpenConns})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		if v, err := database.Version(ctx, db); err == nil {
			log.Info("migrations applied", zap.Int64("version", v))
		}
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	blobs, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		return err
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	admins := repository.NewAdminRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)

	// Services
	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = &service.AMQPPublisher{URL: cfg.RabbitURL, Log: log.Named("publisher")}
	}
	authz := service.NewAuthorizer(profiles, admins)
	profileSvc := service.NewProfileService(profiles)
	flow := service.NewBookingService(service.Deps{
		Authz:    authz,
		Profiles: profileSvc,
		Store:    profiles,
		Ledger:   bookings,
		Blobs:    blobs,
		Events:   events,
		Log:      log.Named("booking"),
		Plan:     service.Plan{Price: cfg.Plan.Price, Days: cfg.Plan.Days},
		MaxBytes: cfg.Upload.MaxBytes,
	})

	cacheCfg := config.LoadCacheConfig()
	var seatCache echo.MiddlewareFunc
	if cacheCfg.Enabled && rdb != nil {
		seatCache = middleware.NewRedisCache(cacheCfg, rdb)
	}
	var writeLimit echo.MiddlewareFunc
	if rl := config.LoadRateLimitConfig(); rl.Enabled && rdb != nil {
		writeLimit = middleware.NewTokenBucket(rl, rdb, log.Named("ratelimit"))
	}
	onSeatsChanged := func(ctx context.Context) {
		if err := middleware.InvalidateCache(ctx, rdb, cacheCfg.Prefix); err != nil {
			log.Warn("seat cache invalidation failed", zap.Error(err))
		}
	}

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens, profiles, log.Named("auth"))
	bookingH := &handler.BookingHandler{
		Flow:           flow,
		Profiles:       profileSvc,
		Seats:          seats,
		Bookings:       bookings,
		Log:            log.Named("http"),
		OnSeatsChanged: onSeatsChanged,
	}
	adminH := &handler.AdminHandler{
		Flow:           flow,
		Views:          bookings,
		Seats:          seats,
		Log:            log.Named("admin"),
		OnSeatsChanged: onSeatsChanged,
	}
	proofH := &handler.ProofHandler{Files: blobs, Roles: authz, Log: log.Named("proofs")}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log.Named("http"))
	e.Use(echomw.Recover())
	e.Use(middleware.AccessLog(log.Named("access")))
	e.Use(middleware.Metrics())

	router.RegisterRoutes(e, db)
	router.RegisterProofs(e, proofH, cfg.JWTSecret, cfg.Upload.BaseURL)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, bookingH, seatCache)
	router.RegisterMember(e, bookingH, cfg.JWTSecret, writeLimit, bodyLimit(cfg.Upload.MaxBytes))
	router.RegisterAdmin(e, adminH, authz, cfg.JWTSecret, writeLimit)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.EventsEnabled {
		consumer := &queue.AuditConsumer{URL: cfg.RabbitURL, Log: log.Named("audit")}
		g.Go(func() error { return consumer.Run(gctx) })
	}
	return g.Wait()
}

// bodyLimit leaves 1 MiB on top of the proof for the multipart envelope.
func bodyLimit(maxBytes int64) string {
	return strconv.FormatInt((maxBytes>>20)+1, 10) + "M"
}
