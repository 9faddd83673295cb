package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	ServiceName string
	InstanceID  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL           string
	CartTTL            time.Duration
	CheckoutAttemptTTL time.Duration
	CheckoutLockTTL    time.Duration
	IdempotencyTTL     time.Duration
	MenuCacheTTL       time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	PaymentProvider string
	StripeSecretKey string
	Currency        string

	KafkaBrokers     []string
	OrderEventsTopic string
	KafkaGroupID     string

	AWSRegion             string
	AWSEndpoint           string
	AWSUseSecrets         bool
	SecretsName           string
	OrderEventsTopicArn   string
	NotificationsTopicArn string
	OrderEventsQueueURL   string
	CloudWatchEnabled     bool
	CloudWatchNamespace   string
	CloudWatchLogGroup    string
	CloudWatchLogsEnabled bool

	AllowedOrigins        []string
	RequestTimeout        time.Duration
	DashboardPageSize     int
	DashboardPollInterval time.Duration

	SeedDemoData  bool
	StaffEmail    string
	StaffPassword string
}

// SecretSource returns a flat key/value secret.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found, using environment")
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "tastygrill-api"),
		InstanceID:  getEnv("INSTANCE_ID", uuid.NewString()[:8]),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Europe/London"),

		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:            getDuration("CART_TTL", 7*24*time.Hour),
		CheckoutAttemptTTL: getDuration("CHECKOUT_ATTEMPT_TTL", 24*time.Hour),
		CheckoutLockTTL:    getDuration("CHECKOUT_LOCK_TTL", 60*time.Second),
		IdempotencyTTL:     getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		MenuCacheTTL:       getDuration("MENU_CACHE_TTL", 5*time.Minute),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		PaymentProvider: strings.ToLower(getEnv("PAYMENT_PROVIDER", "sandbox")),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        strings.ToUpper(getEnv("CURRENCY", "GBP")),

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "orders.events"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", ""),

		AWSRegion:             getEnv("AWS_REGION", "eu-west-2"),
		AWSEndpoint:           os.Getenv("AWS_ENDPOINT"),
		AWSUseSecrets:         getBool("AWS_USE_SECRETS", false),
		SecretsName:           getEnv("AWS_SECRETS_NAME", "tastygrill/api"),
		OrderEventsTopicArn:   os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		NotificationsTopicArn: os.Getenv("NOTIFICATIONS_TOPIC_ARN"),
		OrderEventsQueueURL:   os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		CloudWatchEnabled:     getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "TastyGrill"),
		CloudWatchLogGroup:    getEnv("CLOUDWATCH_LOG_GROUP", "/tastygrill/api"),
		CloudWatchLogsEnabled: getBool("CLOUDWATCH_LOGS_ENABLED", false),

		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RequestTimeout:        getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DashboardPageSize:     getInt("DASHBOARD_PAGE_SIZE", 50),
		DashboardPollInterval: getDuration("DASHBOARD_POLL_INTERVAL", 30*time.Second),

		SeedDemoData:  getBool("SEED_DEMO_DATA", false),
		StaffEmail:    os.Getenv("STAFF_EMAIL"),
		StaffPassword: os.Getenv("STAFF_PASSWORD"),
	}
	if cfg.KafkaGroupID == "" {
		// every instance needs every event for its dashboard clients
		cfg.KafkaGroupID = cfg.ServiceName + "-" + cfg.InstanceID
	}
	return cfg, nil
}

// ApplySecrets overrides credentials with values from the secret store.
// Keys use the same names as the environment variables.
func (c *Config) ApplySecrets(ctx context.Context, src SecretSource) error {
	m, err := src.GetSecretMap(ctx, c.SecretsName)
	if err != nil {
		return fmt.Errorf("load secrets %s: %w", c.SecretsName, err)
	}
	overrides := map[string]*string{
		"POSTGRES_USER":     &c.PostgresUser,
		"POSTGRES_PASSWORD": &c.PostgresPassword,
		"POSTGRES_DB":       &c.PostgresDB,
		"POSTGRES_HOST":     &c.PostgresHost,
		"POSTGRES_PORT":     &c.PostgresPort,
		"REDIS_URL":         &c.RedisURL,
		"JWT_SECRET":        &c.JWTSecret,
		"STRIPE_SECRET_KEY": &c.StripeSecretKey,
	}
	for key, dst := range overrides {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.PaymentProvider {
	case "stripe":
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	case "sandbox":
		if c.Env == "production" {
			return fmt.Errorf("sandbox payments are not allowed in production")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	if c.DashboardPageSize < 1 {
		return fmt.Errorf("DASHBOARD_PAGE_SIZE must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), "/")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
