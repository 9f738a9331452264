package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/seatledger/api"
	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/service/booking"
	"github.com/Domenick1991/seatledger/internal/service/cancellation"
	"github.com/Domenick1991/seatledger/internal/service/flights"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Flights       flights.FlightUseCase
	Bookings      booking.BookingUseCase
	Cancellations cancellation.CancellationUseCase
	Limiter       api.RateLimiter
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Health        map[string]Pinger
	Log           logger.Logger
}

// NewRouter builds the HTTP surface: the versioned API, health, metrics and docs.
func NewRouter(cfg config.HTTPConfig, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.AccessLog(deps.Log), api.Metrics(deps.Metrics))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, api.IdempotencyHeader)
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	v1 := router.Group("/api/v1")
	api.NewFlightHandler(deps.Flights).Register(v1.Group("/flights"))

	api.NewBookingHandler(deps.Bookings, deps.Cancellations).Register(v1.Group("/bookings"),
		api.RateLimit(deps.Limiter, cfg.BookingRateLimit, time.Minute, deps.Log))

	router.GET("/health", health(deps.Health))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	if cfg.SwaggerDir != "" {
		router.StaticFile("/swagger/swagger.json", filepath.Join(cfg.SwaggerDir, "swagger.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/swagger.json"))))
	}
	return router
}

func health(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, result)
	}
}

// Run serves handler on cfg.Address until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "address", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
