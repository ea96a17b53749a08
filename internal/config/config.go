package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // display timezones on hosts without zoneinfo

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

// ErrInvalidConfig wraps every configuration failure. Startup aborts on it.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultEnvFile is loaded when present and no explicit file is given.
const DefaultEnvFile = ".env"

// recommendedMinPollInterval is the interval below which upstream rate limits
// become a concern.
const recommendedMinPollInterval = 300 * time.Second

// Config holds all daemon settings, populated from environment variables.
// The env tag names the variable and is used in validation messages.
type Config struct {
	APIKey       string        `env:"WEATHER_API_KEY" validate:"required"`
	Latitude     float64       `env:"WEATHER_LATITUDE" validate:"gte=-90,lte=90"`
	Longitude    float64       `env:"WEATHER_LONGITUDE" validate:"gte=-180,lte=180"`
	LocationName string        `env:"WEATHER_LOCATION_NAME"`
	OutputDir    string        `env:"WEATHER_OUTPUT_DIR" validate:"required"`
	PollInterval time.Duration `env:"WEATHER_POLL_INTERVAL" validate:"gte=60s"`
	Timeout      time.Duration `env:"WEATHER_TIMEOUT" validate:"gte=1s"`
	LogLevel     string        `env:"WEATHER_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat    string        `env:"WEATHER_LOG_FORMAT" validate:"oneof=text json"`

	APIBaseURL      string `env:"WEATHER_API_BASE_URL" validate:"required,base_url"`
	CurrentEndpoint string `env:"WEATHER_CURRENT_ENDPOINT" validate:"required"`
	HourlyEndpoint  string `env:"WEATHER_HOURLY_ENDPOINT" validate:"required"`
	DailyEndpoint   string `env:"WEATHER_DAILY_ENDPOINT" validate:"required"`

	DisplayTimezone string         `env:"WEATHER_DISPLAY_TIMEZONE" validate:"required"`
	DisplayLocation *time.Location `validate:"-"`

	HealthCheckEnabled bool   `env:"WEATHER_HEALTH_CHECK_ENABLED"`
	HealthCheckHost    string `env:"WEATHER_HEALTH_CHECK_HOST" validate:"required"`
	HealthCheckPort    int    `env:"WEATHER_HEALTH_CHECK_PORT" validate:"gte=1,lte=65535"`

	MapboxToken   string        `env:"MAPBOX_TOKEN"`
	MapboxTimeout time.Duration `env:"MAPBOX_TIMEOUT" validate:"gte=1s"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" validate:"required"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Load reads configuration from the environment after applying envFile.
// An explicit envFile must exist; with an empty envFile, .env is loaded only
// if present. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	p := &parser{}
	cfg := &Config{
		APIKey:       os.Getenv("WEATHER_API_KEY"),
		Latitude:     p.requiredFloat("WEATHER_LATITUDE"),
		Longitude:    p.requiredFloat("WEATHER_LONGITUDE"),
		LocationName: os.Getenv("WEATHER_LOCATION_NAME"),
		OutputDir:    sharedcfg.EnvOrDefault("WEATHER_OUTPUT_DIR", "/opt/weather-daemon/cache"),
		PollInterval: p.seconds("WEATHER_POLL_INTERVAL", 3600),
		Timeout:      p.seconds("WEATHER_TIMEOUT", 30),
		LogLevel:     strings.ToLower(sharedcfg.EnvOrDefault("WEATHER_LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(sharedcfg.EnvOrDefault("WEATHER_LOG_FORMAT", "text")),

		APIBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("WEATHER_API_BASE_URL", "https://weather.googleapis.com/v1"), "/"),
		CurrentEndpoint: sharedcfg.EnvOrDefault("WEATHER_CURRENT_ENDPOINT", "currentConditions:lookup"),
		HourlyEndpoint:  sharedcfg.EnvOrDefault("WEATHER_HOURLY_ENDPOINT", "forecast/hours:lookup"),
		DailyEndpoint:   sharedcfg.EnvOrDefault("WEATHER_DAILY_ENDPOINT", "forecast/days:lookup"),

		DisplayTimezone: sharedcfg.EnvOrDefault("WEATHER_DISPLAY_TIMEZONE", "UTC"),

		HealthCheckEnabled: parseBool(sharedcfg.EnvOrDefault("WEATHER_HEALTH_CHECK_ENABLED", "true")),
		HealthCheckHost:    sharedcfg.EnvOrDefault("WEATHER_HEALTH_CHECK_HOST", "127.0.0.1"),
		HealthCheckPort:    p.integer("WEATHER_HEALTH_CHECK_PORT", 8080),

		MapboxToken:   os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout: p.seconds("MAPBOX_TIMEOUT", 5),

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-forecast"),

		ShutdownTimeout: shutdownTimeout,
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: WEATHER_DISPLAY_TIMEZONE: %w", ErrInvalidConfig, err)
	}
	cfg.DisplayLocation = loc

	return cfg, nil
}

// Warnings returns non-fatal configuration concerns to log at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.PollInterval < recommendedMinPollInterval {
		warnings = append(warnings, fmt.Sprintf(
			"WEATHER_POLL_INTERVAL of %s is below the recommended %s and may hit API rate limits",
			c.PollInterval, recommendedMinPollInterval))
	}
	return warnings
}

// Target builds the immutable poll target.
func (c *Config) Target() domain.PollTarget {
	return domain.PollTarget{
		Name:      c.LocationName,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		BaseURL:   c.APIBaseURL,
		Endpoints: domain.Endpoints{
			Current: c.CurrentEndpoint,
			Hourly:  c.HourlyEndpoint,
			Daily:   c.DailyEndpoint,
		},
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
}

// OutputFile is the full path of the published artifact.
func (c *Config) OutputFile() string {
	return filepath.Join(c.OutputDir, domain.ArtifactName)
}

// HealthAddr is the listen address of the monitoring server.
func (c *Config) HealthAddr() string {
	return net.JoinHostPort(c.HealthCheckHost, strconv.Itoa(c.HealthCheckPort))
}

// ResolvePlaceName reports whether the display name should be looked up by
// reverse geocoding at startup.
func (c *Config) ResolvePlaceName() bool {
	return c.LocationName == "" && c.MapboxToken != ""
}

// MirrorEnabled reports whether documents are also written to Kafka.
func (c *Config) MirrorEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func loadEnvFile(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrInvalidConfig, envFile, err)
		}
		return nil
	}
	if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrInvalidConfig, DefaultEnvFile, err)
		}
	}
	return nil
}

// parser collects the first conversion error so Load can read every
// variable in one pass.
type parser struct {
	err error
}

func (p *parser) fail(key, value, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %q is not %s", ErrInvalidConfig, key, value, want)
	}
}

func (p *parser) requiredFloat(key string) float64 {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		if p.err == nil {
			p.err = fmt.Errorf("%w: %s is required", ErrInvalidConfig, key)
		}
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, s, "a number")
		return 0
	}
	return f
}

func (p *parser) integer(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, s, "an integer")
		return 0
	}
	return n
}

func (p *parser) seconds(key string, def int) time.Duration {
	return time.Duration(p.integer(key, def)) * time.Second
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

var validate = newValidator()

func newValidator() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("base_url", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})

	return func(cfg *Config) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "base_url":
		return fe.Field() + " must be an http(s) URL with a host"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
