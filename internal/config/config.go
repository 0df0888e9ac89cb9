package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort                 = "8080"
	defaultStressWorkers        = 8
	defaultStressOpsPerSecond   = 1000
	defaultStressDuration       = 30 * time.Second
	defaultStressDistinctValues = 256
)

type Config struct {
	sentryDSN            string
	port                 string
	gcpProject           string
	otelEnabled          bool
	stressWorkers        int
	stressOpsPerSecond   int
	stressDuration       time.Duration
	stressDistinctValues int
	env                  environment
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

// GCPProject is used to link log entries to Cloud Trace. Empty outside GCP.
func (c *Config) GCPProject() string {
	return c.gcpProject
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) StressWorkers() int {
	return c.stressWorkers
}

func (c *Config) StressOpsPerSecond() int {
	return c.stressOpsPerSecond
}

func (c *Config) StressDuration() time.Duration {
	return c.stressDuration
}

func (c *Config) StressDistinctValues() int {
	return c.stressDistinctValues
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, otel: %t, workers: %d, opsPerSecond: %d, duration: %s, distinctValues: %d, ...}",
		string(c.env),
		c.port,
		c.otelEnabled,
		c.stressWorkers,
		c.stressOpsPerSecond,
		c.stressDuration,
		c.stressDistinctValues,
	)
}

func positiveIntFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	return value, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("STATICSTR_ENVIRONMENT")
	if !ok {
		return missingKey("STATICSTR_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: STATICSTR_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	gcpProject := os.Getenv("GCP_PROJECT")

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return Config{}, fmt.Errorf("%w: OTEL_ENABLED (%s)", ErrInvalidValue, rawOTel)
		}
		otelEnabled = parsed
	}

	workers, err := positiveIntFromEnv("STRESS_WORKERS", defaultStressWorkers)
	if err != nil {
		return Config{}, err
	}
	opsPerSecond, err := positiveIntFromEnv("STRESS_OPS_PER_SECOND", defaultStressOpsPerSecond)
	if err != nil {
		return Config{}, err
	}
	distinctValues, err := positiveIntFromEnv("STRESS_DISTINCT_VALUES", defaultStressDistinctValues)
	if err != nil {
		return Config{}, err
	}

	duration := defaultStressDuration
	if rawDuration := os.Getenv("STRESS_DURATION"); rawDuration != "" {
		parsed, err := time.ParseDuration(rawDuration)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("%w: STRESS_DURATION (%s)", ErrInvalidValue, rawDuration)
		}
		duration = parsed
	}

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		sentryDSN:            sentryDSN,
		port:                 port,
		gcpProject:           gcpProject,
		otelEnabled:          otelEnabled,
		stressWorkers:        workers,
		stressOpsPerSecond:   opsPerSecond,
		stressDuration:       duration,
		stressDistinctValues: distinctValues,
		env:                  env,
	}, nil
}
