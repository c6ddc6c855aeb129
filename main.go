package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/car-rental-microservice/config"
	"github.com/Eursukkul/car-rental-microservice/internal/consumer"
	"github.com/Eursukkul/car-rental-microservice/internal/handler"
	"github.com/Eursukkul/car-rental-microservice/internal/lock"
	"github.com/Eursukkul/car-rental-microservice/internal/middleware"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"github.com/Eursukkul/car-rental-microservice/internal/service"
	"github.com/Eursukkul/car-rental-microservice/pkg/database"
	"github.com/Eursukkul/car-rental-microservice/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	// Locker: Redis when configured so several instances share locks,
	// otherwise in-process.
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, log)
		log.WithField("addr", cfg.RedisAddr).Info("using Redis locks")
	}

	// Repositories
	reservationRepo := repository.NewReservationRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	userRepo := repository.NewUserRepository(db)
	txManager := repository.NewTxManager(db)

	// Services
	reservationSvc := service.NewReservationService(txManager, reservationRepo, vehicleRepo, userRepo, locker)
	settlementSvc := service.NewSettlementService(txManager, reservationRepo, settlementRepo, userRepo, locker)

	// RabbitMQ is optional: without it no events go out and the catalog
	// projections are only as fresh as the last sync.
	var publisher handler.EventPublisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.WithError(err).Fatal("failed to start consuming")
		}
		consumer.NewCatalogConsumer(vehicleRepo, userRepo, log).Start(msgs)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	api := e.Group("/api/v1", middleware.JWTAuth(cfg.JWTSecret))
	handler.NewReservationHandler(reservationSvc, publisher).RegisterRoutes(api)
	handler.NewSettlementHandler(settlementSvc, publisher).RegisterRoutes(api)

	go func() {
		log.WithField("port", cfg.ServerPort).Info("reservation service starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("reservation service stopped")
}
