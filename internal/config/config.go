package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Supported values for DATA_SOURCE.
const (
	SourceOpenMeteo = "openmeteo"
	SourceNOAA      = "noaa"
)

// Config holds all service settings, populated from environment variables.
// It is not modified after Load returns.
type Config struct {
	DataSource string
	Timezone   *time.Location

	NOAAToken        string
	NOAABaseURL      string
	NOAARateLimit    float64
	OpenMeteoBaseURL string

	CitiesPath string
	OutputDir  string

	// SeasonStart overrides the derived September 1 start; zero when unset.
	SeasonStart      time.Time
	HistoryEndSeason int // 0 means the last completed season
	HistorySeasons   int

	CityDelay        time.Duration
	HistoryCityDelay time.Duration

	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	HTTPTimeout          time.Duration

	StormThreshold float64

	BreakerMaxFailures int
	BreakerCooldown    time.Duration

	RefreshSchedule string
	RunOnStart      bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Storm event notifications.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaStormTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		DataSource:       strings.ToLower(sharedcfg.EnvOrDefault("DATA_SOURCE", SourceOpenMeteo)),
		NOAAToken:        os.Getenv("NOAA_TOKEN"),
		NOAABaseURL:      sharedcfg.EnvOrDefault("NOAA_BASE_URL", "https://www.ncei.noaa.gov/cdo-web/api/v2/data"),
		NOAARateLimit:    p.positiveFloat("NOAA_RATE_LIMIT", "4"),
		OpenMeteoBaseURL: sharedcfg.EnvOrDefault("OPENMETEO_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		CitiesPath:       sharedcfg.EnvOrDefault("CITIES_PATH", "data/cities.json"),
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "public/data"),
		HistorySeasons:   p.positiveInt("HISTORY_SEASONS", "20"),

		CityDelay:        p.duration("CITY_DELAY", "250ms", true),
		HistoryCityDelay: p.duration("HISTORY_CITY_DELAY", "3.5s", true),

		RetryMaxAttempts:     p.positiveInt("RETRY_MAX_ATTEMPTS", "3"),
		RetryInitialInterval: p.duration("RETRY_INITIAL_INTERVAL", "2s", false),
		RetryMaxInterval:     p.duration("RETRY_MAX_INTERVAL", "10s", false),
		HTTPTimeout:          p.duration("HTTP_TIMEOUT", "30s", false),

		StormThreshold: p.positiveFloat("STORM_THRESHOLD", "4.0"),

		BreakerMaxFailures: p.positiveInt("BREAKER_MAX_FAILURES", "5"),
		BreakerCooldown:    p.duration("BREAKER_COOLDOWN", "30s", false),

		RefreshSchedule: sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "0 7 * * *"),
		RunOnStart:      p.boolean("RUN_ON_START", "true"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   p.duration("MAPBOX_TIMEOUT", "5s", false),
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaEnabled:    p.boolean("KAFKA_ENABLED", "false"),
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaStormTopic: sharedcfg.EnvOrDefault("KAFKA_STORM_TOPIC", "snow-storm-events"),
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	cfg.Timezone = p.location("WEATHER_TIMEZONE", "America/New_York")
	cfg.SeasonStart = p.date("SEASON_START")
	cfg.HistoryEndSeason = p.optionalInt("HISTORY_END_SEASON")

	if p.err != nil {
		return nil, p.err
	}

	switch cfg.DataSource {
	case SourceOpenMeteo:
	case SourceNOAA:
		if cfg.NOAAToken == "" {
			return nil, errors.New("NOAA_TOKEN is required when DATA_SOURCE is noaa")
		}
	default:
		return nil, fmt.Errorf("invalid DATA_SOURCE %q: must be %s or %s", cfg.DataSource, SourceOpenMeteo, SourceNOAA)
	}
	if cfg.RetryMaxInterval < cfg.RetryInitialInterval {
		return nil, errors.New("invalid RETRY_MAX_INTERVAL: must not be below RETRY_INITIAL_INTERVAL")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaStormTopic == "" {
		return nil, errors.New("KAFKA_STORM_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// parser reads typed variables and keeps the first failure.
type parser struct {
	err error
}

func (p *parser) fail(key, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: must be %s", key, want)
	}
}

func (p *parser) duration(key, def string, allowZero bool) time.Duration {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		p.fail(key, "a positive duration")
		return 0
	}
	return d
}

func (p *parser) positiveInt(key, def string) int {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < 1 {
		p.fail(key, "a positive integer")
		return 0
	}
	return n
}

func (p *parser) optionalInt(key string) int {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		p.fail(key, "a positive integer")
		return 0
	}
	return n
}

func (p *parser) positiveFloat(key, def string) float64 {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || f <= 0 {
		p.fail(key, "a positive number")
		return 0
	}
	return f
}

func (p *parser) boolean(key, def string) bool {
	b, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, "true or false")
		return false
	}
	return b
}

func (p *parser) location(key, def string) *time.Location {
	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, "an IANA time zone name")
		return time.UTC
	}
	return loc
}

func (p *parser) date(key string) time.Time {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		p.fail(key, "a YYYY-MM-DD date")
		return time.Time{}
	}
	return t
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
