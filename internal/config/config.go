// Package config loads the daemon's runtime configuration: ambient
// settings from the environment (broker connection, logging, admin
// listener) and the declarative routing document (routes, services,
// failover, periodic tasks) from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Runtime holds the environment-sourced settings every deployment of
// the daemon needs regardless of its routing document: where the
// broker lives, how to log, and where the admin HTTP listener binds.
type Runtime struct {
	AppName    string
	AppVersion string

	BrokerURL    string
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
	KeepAlive    int
	TLSInsecure  bool

	LogLevel  string
	LogFormat string

	TimestampsUTC bool

	AdminListenAddr string
	MetricsNamespace string

	RoutingConfigPath string

	QueueCapacity     int
	QueueMaxRetries   int
	QueueRetryBackoff time.Duration
	QueueRateLimit    float64

	ShutdownGrace time.Duration
}

// Load reads Runtime settings from the environment, loading a .env
// file first when present.
func Load() (*Runtime, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using environment variables")
	}

	rt := &Runtime{
		AppName:    getEnv("WARNBRIDGE_APP_NAME", "warnbridge"),
		AppVersion: getEnv("WARNBRIDGE_APP_VERSION", "dev"),

		BrokerURL:    getEnv("WARNBRIDGE_BROKER_URL", "tcp://localhost:1883"),
		ClientID:     getEnv("WARNBRIDGE_CLIENT_ID", "warnbridge"),
		Username:     getEnv("WARNBRIDGE_BROKER_USERNAME", ""),
		Password:     getEnv("WARNBRIDGE_BROKER_PASSWORD", ""),
		CleanSession: getEnvAsBool("WARNBRIDGE_CLEAN_SESSION", true),
		KeepAlive:    getEnvAsInt("WARNBRIDGE_KEEPALIVE_SECONDS", 30),
		TLSInsecure:  getEnvAsBool("WARNBRIDGE_TLS_INSECURE", false),

		LogLevel:  getEnv("WARNBRIDGE_LOG_LEVEL", "info"),
		LogFormat: getEnv("WARNBRIDGE_LOG_FORMAT", "json"),

		TimestampsUTC: getEnvAsBool("WARNBRIDGE_TIMESTAMPS_UTC", false),

		AdminListenAddr:  getEnv("WARNBRIDGE_ADMIN_ADDR", ":9090"),
		MetricsNamespace: getEnv("WARNBRIDGE_METRICS_NAMESPACE", "warnbridge"),

		RoutingConfigPath: getEnv("WARNBRIDGE_ROUTES_FILE", "./routes.yaml"),

		QueueCapacity:     getEnvAsInt("WARNBRIDGE_QUEUE_CAPACITY", 100),
		QueueMaxRetries:   getEnvAsInt("WARNBRIDGE_QUEUE_MAX_RETRIES", 3),
		QueueRetryBackoff: getEnvAsDuration("WARNBRIDGE_QUEUE_RETRY_BACKOFF", 500*time.Millisecond),
		QueueRateLimit:    getEnvAsFloat64("WARNBRIDGE_QUEUE_RATE_LIMIT", 0),

		ShutdownGrace: getEnvAsDuration("WARNBRIDGE_SHUTDOWN_GRACE", 10*time.Second),
	}

	if err := rt.validate(); err != nil {
		return nil, err
	}

	return rt, nil
}

func (rt *Runtime) validate() error {
	if rt.BrokerURL == "" {
		return fmt.Errorf("config: WARNBRIDGE_BROKER_URL must not be empty")
	}
	if rt.RoutingConfigPath == "" {
		return fmt.Errorf("config: WARNBRIDGE_ROUTES_FILE must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
