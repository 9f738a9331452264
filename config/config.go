package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Booking      BookingConfig      `yaml:"booking"`
	Cancellation CancellationConfig `yaml:"cancellation"`
	Worker       WorkerConfig       `yaml:"worker"`
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type HTTPConfig struct {
	Address                string   `yaml:"address"`
	SwaggerDir             string   `yaml:"swagger_dir"`
	CORSOrigins            []string `yaml:"cors_origins"`
	BookingRateLimit       int      `yaml:"booking_rate_limit_per_minute"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	MaxConns      int32  `yaml:"max_conns"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMS) * time.Millisecond
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers              []string `yaml:"brokers"`
	BookingEventsTopic   string   `yaml:"booking_events_topic"`
	NotificationsTopic   string   `yaml:"notifications_topic"`
	PaymentRequestsTopic string   `yaml:"payment_requests_topic"`
	PaymentResultsTopic  string   `yaml:"payment_results_topic"`
	GroupID              string   `yaml:"group_id"`
}

// ConsumerGroup names the consumer group reading one stream, so each topic rebalances on its own.
func (k KafkaConfig) ConsumerGroup(stream string) string {
	return k.GroupID + "-" + stream
}

type BookingConfig struct {
	PaymentWindowMinutes  int `yaml:"payment_window_minutes"`
	FlightsCacheTTL       int `yaml:"flights_cache_ttl_seconds"`
	IdempotencyTTLMinutes int `yaml:"idempotency_ttl_minutes"`
	MaxTxAttempts         int `yaml:"max_tx_attempts"`
	RetryBackoffMS        int `yaml:"retry_backoff_ms"`
	MaxSeatAttempts       int `yaml:"max_seat_attempts"`
}

func (b BookingConfig) PaymentWindow() time.Duration {
	return time.Duration(b.PaymentWindowMinutes) * time.Minute
}

func (b BookingConfig) FlightsCacheTTLDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) IdempotencyTTL() time.Duration {
	return time.Duration(b.IdempotencyTTLMinutes) * time.Minute
}

func (b BookingConfig) RetryBackoff() time.Duration {
	return time.Duration(b.RetryBackoffMS) * time.Millisecond
}

// FeeTier charges FeePercent of the booking total when at least HoursBefore hours remain
// before the first departure.
type FeeTier struct {
	HoursBefore int `yaml:"hours_before"`
	FeePercent  int `yaml:"fee_percent"`
}

type CancellationConfig struct {
	Policy string    `yaml:"policy"`
	Tiers  []FeeTier `yaml:"tiers"`
}

type WorkerConfig struct {
	ExpirationSweepSeconds int `yaml:"expiration_sweep_seconds"`
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
	AuditSweepMinutes      int `yaml:"audit_sweep_minutes"`
	SweepBatchSize         int `yaml:"sweep_batch_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// LoadConfig reads the YAML file at path. Variables from an optional .env file and the process
// environment override secrets and endpoints; missing values get defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.HTTP.Address, ":8080")
	setDefault(&c.HTTP.SwaggerDir, "docs")
	setDefaultInt(&c.HTTP.BookingRateLimit, 30)
	setDefaultInt(&c.HTTP.ShutdownTimeoutSeconds, 10)

	setDefault(&c.Database.SSLMode, "disable")
	setDefaultInt(&c.Database.LockTimeoutMS, 5000)
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 20
	}

	setDefault(&c.Kafka.BookingEventsTopic, "booking_events")
	setDefault(&c.Kafka.NotificationsTopic, "notifications")
	setDefault(&c.Kafka.PaymentRequestsTopic, "payment_requests")
	setDefault(&c.Kafka.PaymentResultsTopic, "payment_results")
	setDefault(&c.Kafka.GroupID, "seatledger")

	setDefaultInt(&c.Booking.PaymentWindowMinutes, 30)
	setDefaultInt(&c.Booking.FlightsCacheTTL, 30)
	setDefaultInt(&c.Booking.IdempotencyTTLMinutes, 24*60)
	setDefaultInt(&c.Booking.MaxTxAttempts, 3)
	setDefaultInt(&c.Booking.RetryBackoffMS, 50)
	setDefaultInt(&c.Booking.MaxSeatAttempts, 5)

	setDefault(&c.Cancellation.Policy, "tiered")
	if len(c.Cancellation.Tiers) == 0 {
		c.Cancellation.Tiers = []FeeTier{
			{HoursBefore: 168, FeePercent: 0},
			{HoursBefore: 72, FeePercent: 10},
			{HoursBefore: 24, FeePercent: 25},
			{HoursBefore: 0, FeePercent: 50},
		}
	}
	sort.Slice(c.Cancellation.Tiers, func(i, j int) bool {
		return c.Cancellation.Tiers[i].HoursBefore > c.Cancellation.Tiers[j].HoursBefore
	})

	setDefaultInt(&c.Worker.ExpirationSweepSeconds, 60)
	setDefaultInt(&c.Worker.CompletionSweepMinutes, 15)
	setDefaultInt(&c.Worker.AuditSweepMinutes, 60)
	setDefaultInt(&c.Worker.SweepBatchSize, 100)

	setDefault(&c.Log.Level, "info")
	setDefault(&c.Metrics.Namespace, "seatledger")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("database.host and database.name are required"))
	}
	if c.Booking.MaxTxAttempts < 1 {
		errs = append(errs, errors.New("booking.max_tx_attempts must be at least 1"))
	}
	if c.Booking.MaxSeatAttempts < 1 {
		errs = append(errs, errors.New("booking.max_seat_attempts must be at least 1"))
	}
	if c.Booking.PaymentWindowMinutes < 1 {
		errs = append(errs, errors.New("booking.payment_window_minutes must be positive"))
	}
	switch c.Cancellation.Policy {
	case "tiered", "no_fee":
	default:
		errs = append(errs, fmt.Errorf("cancellation.policy %q is not one of tiered, no_fee", c.Cancellation.Policy))
	}
	for _, t := range c.Cancellation.Tiers {
		if t.FeePercent < 0 || t.FeePercent > 100 || t.HoursBefore < 0 {
			errs = append(errs, fmt.Errorf("cancellation tier %+v is out of range", t))
		}
	}
	return errors.Join(errs...)
}

func setDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setDefaultInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
