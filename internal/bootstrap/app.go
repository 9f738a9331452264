package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/cache"
	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/payment"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/service/allocation"
	"github.com/Domenick1991/seatledger/internal/service/booking"
	"github.com/Domenick1991/seatledger/internal/service/cancellation"
	"github.com/Domenick1991/seatledger/internal/service/flights"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// App holds the connections and services shared by the API server and the worker.
type App struct {
	Config        *config.Config
	Log           logger.Logger
	Pool          *pgxpool.Pool
	Redis         *redis.Client
	Cache         *cache.RedisCache
	Producer      *kafka.Producer
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Store         repository.Store
	Ledger        *inventory.Ledger
	Flights       *flights.FlightService
	Bookings      *booking.BookingService
	Cancellations *cancellation.CancellationService
}

func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg, cfg.Metrics.Namespace)

	redisClient := cache.NewClient(cfg.Redis)
	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheTTLDuration(), cfg.Booking.IdempotencyTTL())

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	emitter := kafka.NewEmitter(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic, log, m)

	store := repository.NewPGStore(pool, cfg.Database.LockTimeout())
	ledger := inventory.NewLedger()
	allocator := allocation.NewAllocator(ledger,
		allocation.WithMaxSeatAttempts(cfg.Booking.MaxSeatAttempts),
		allocation.WithMetrics(m),
	)

	cancellations := cancellation.NewCancellationService(store, allocator, cancellation.NewPolicy(cfg.Cancellation), log,
		cancellation.WithEmitter(emitter),
		cancellation.WithRetry(cfg.Booking.MaxTxAttempts, cfg.Booking.RetryBackoff()),
		cancellation.WithMetrics(m),
	)
	bookings := booking.NewBookingService(store, ledger, allocator, cancellations, log,
		booking.WithGateway(payment.NewKafkaGateway(producer, cfg.Kafka.PaymentRequestsTopic)),
		booking.WithCache(redisCache),
		booking.WithEmitter(emitter),
		booking.WithRetry(cfg.Booking.MaxTxAttempts, cfg.Booking.RetryBackoff()),
		booking.WithPaymentWindow(cfg.Booking.PaymentWindow()),
		booking.WithSweepBatch(cfg.Worker.SweepBatchSize),
		booking.WithMetrics(m),
	)

	return &App{
		Config:        cfg,
		Log:           log,
		Pool:          pool,
		Redis:         redisClient,
		Cache:         redisCache,
		Producer:      producer,
		Registry:      reg,
		Metrics:       m,
		Store:         store,
		Ledger:        ledger,
		Flights:       flights.NewFlightService(store, redisCache, log),
		Bookings:      bookings,
		Cancellations: cancellations,
	}, nil
}

// Router builds the HTTP surface over the app's services.
func (a *App) Router() *gin.Engine {
	return NewRouter(a.Config.HTTP, Deps{
		Flights:       a.Flights,
		Bookings:      a.Bookings,
		Cancellations: a.Cancellations,
		Limiter:       a.Cache,
		Metrics:       a.Metrics,
		Gatherer:      a.Registry,
		Health:        map[string]Pinger{"postgres": a.Pool, "redis": a.Cache},
		Log:           a.Log,
	})
}

func (a *App) Close() {
	if err := a.Producer.Close(); err != nil {
		a.Log.Warn("close kafka producer", "error", err)
	}
	if err := a.Redis.Close(); err != nil {
		a.Log.Warn("close redis", "error", err)
	}
	a.Pool.Close()
}
