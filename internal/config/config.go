package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/water-advisory-service/internal/viewport"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// GazetteerPath is a YAML gazetteer file; empty means the embedded dataset.
	GazetteerPath string

	FeedCapacity       int
	FeedTickInterval   time.Duration
	FeedAmbientEnabled bool

	// OpenWeatherMap configuration.
	WeatherAPIKey   string
	WeatherEnabled  bool
	WeatherBaseURL  string
	WeatherTimeout  time.Duration
	WeatherCacheTTL time.Duration

	// Kafka notification topic. Disabled by default; the feed then only
	// carries ambient and HTTP-submitted notifications.
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaNotificationTopic string
	KafkaGroupID           string
	BatchSize              int
	BatchFlushInterval     time.Duration

	// MapMaxBounds clamps camera moves; nil disables clamping.
	MapMaxBounds *viewport.Bounds
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	feedCapacity, err := parsePositiveInt("FEED_CAPACITY", 5)
	if err != nil {
		return nil, err
	}
	tickInterval, err := parsePositiveDuration("FEED_TICK_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	ambientEnabled, err := parseBool("FEED_AMBIENT_ENABLED", true)
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	weatherAPIKey := os.Getenv("WEATHER_API_KEY")
	weatherEnabled, err := parseBool("WEATHER_ENABLED", weatherAPIKey != "")
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	bounds, err := parseBounds(sharedcfg.EnvOrDefault("MAP_MAX_BOUNDS", "india"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GazetteerPath: os.Getenv("GAZETTEER_PATH"),

		FeedCapacity:       feedCapacity,
		FeedTickInterval:   tickInterval,
		FeedAmbientEnabled: ambientEnabled,

		WeatherAPIKey:   weatherAPIKey,
		WeatherEnabled:  weatherEnabled,
		WeatherBaseURL:  sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org"),
		WeatherTimeout:  weatherTimeout,
		WeatherCacheTTL: weatherCacheTTL,

		KafkaEnabled:           kafkaEnabled,
		KafkaBrokers:           sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotificationTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFICATION_TOPIC", "water-notifications"),
		KafkaGroupID:           sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "water-advisory"),
		BatchSize:              batchSize,
		BatchFlushInterval:     flushInterval,

		MapMaxBounds: bounds,
	}

	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaNotificationTopic == "" {
			return nil, errors.New("KAFKA_NOTIFICATION_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}

// parseBounds accepts "india", "none", or "minLon,minLat,maxLon,maxLat".
func parseBounds(s string) (*viewport.Bounds, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return nil, nil
	case "india", "":
		b := viewport.DefaultBounds
		return &b, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid MAP_MAX_BOUNDS: want minLon,minLat,maxLon,maxLat, got %q", s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAP_MAX_BOUNDS: %w", err)
		}
		vals[i] = v
	}
	b := viewport.Bounds{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MAP_MAX_BOUNDS: %w", err)
	}
	return &b, nil
}
