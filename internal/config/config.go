package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all processor settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	WorkingDir         string
	MaxCommandFailures int

	// Remote web service supplier. An empty URL disables it.
	WebServiceURL       string
	WebServiceTimeout   time.Duration
	WebServiceCacheSize int
	WebServiceRateLimit float64

	// DataStoreConfig is an optional YAML file of named datastore definitions.
	DataStoreConfig string

	// Defaults applied to datastores that do not set their own.
	KafkaBrokers         []string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreUseSSL    bool
	ObjectStoreRegion    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	wsTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("WEBSERVICE_TIMEOUT", "30s"))
	if err != nil || wsTimeout <= 0 {
		return nil, errors.New("invalid WEBSERVICE_TIMEOUT")
	}

	wsRate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("WEBSERVICE_RATE_LIMIT", "5"), 64)
	if err != nil || wsRate <= 0 {
		return nil, errors.New("invalid WEBSERVICE_RATE_LIMIT")
	}

	maxFailures, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAX_COMMAND_FAILURES", "0"))
	if err != nil || maxFailures < 0 {
		return nil, errors.New("invalid MAX_COMMAND_FAILURES")
	}

	useSSL, err := strconv.ParseBool(sharedcfg.EnvOrDefault("OBJECTSTORE_USE_SSL", "false"))
	if err != nil {
		return nil, errors.New("invalid OBJECTSTORE_USE_SSL")
	}

	workingDir := os.Getenv("WORKING_DIR")
	if workingDir == "" {
		if workingDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve WORKING_DIR: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WorkingDir:         workingDir,
		MaxCommandFailures: maxFailures,

		WebServiceURL:       os.Getenv("WEBSERVICE_URL"),
		WebServiceTimeout:   wsTimeout,
		WebServiceCacheSize: parseCacheSize(),
		WebServiceRateLimit: wsRate,

		DataStoreConfig: os.Getenv("DATASTORE_CONFIG"),

		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		ObjectStoreAccessKey: os.Getenv("OBJECTSTORE_ACCESS_KEY"),
		ObjectStoreSecretKey: os.Getenv("OBJECTSTORE_SECRET_KEY"),
		ObjectStoreUseSSL:    useSSL,
		ObjectStoreRegion:    sharedcfg.EnvOrDefault("OBJECTSTORE_REGION", "us-east-1"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// WebServiceEnabled reports whether a remote supplier should be constructed.
func (c *Config) WebServiceEnabled() bool {
	return c.WebServiceURL != ""
}

func parseCacheSize() int {
	if s := os.Getenv("WEBSERVICE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}
