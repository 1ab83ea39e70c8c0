package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	Kafka       KafkaConfig
	Merchants   map[string]MerchantProfile
}

type HTTPConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers       []string
	PaymentsTopic string
}

// MerchantProfile holds the platform credentials and endpoint for one mode
// (TEST or PRODUCTION). Loaded once at startup, read-only afterwards.
type MerchantProfile struct {
	SiteID         string
	Certificate    string
	PlatformURL    string
	CtxMode        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// Modes supported by the payment platform.
const (
	ModeTest       = "TEST"
	ModeProduction = "PRODUCTION"
)

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "googlepay-merchant-server"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":9090"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			PaymentsTopic: getEnv("KAFKA_PAYMENTS_TOPIC", "payments.v1"),
		},
		Merchants: make(map[string]MerchantProfile),
	}

	for _, mode := range []string{ModeTest, ModeProduction} {
		profile, err := loadMerchantProfile(mode)
		if err != nil {
			return Config{}, err
		}
		cfg.Merchants[mode] = profile
	}

	return cfg, nil
}

// Merchant returns the profile for the given mode. It fails when the mode is
// unknown or the profile misses any of the required settings, so a request
// never reaches the platform half-configured.
func (c Config) Merchant(mode string) (MerchantProfile, error) {
	profile, ok := c.Merchants[mode]
	if !ok {
		return MerchantProfile{}, fmt.Errorf("unknown payment mode %q", mode)
	}
	if profile.SiteID == "" || profile.Certificate == "" || profile.PlatformURL == "" {
		return MerchantProfile{}, fmt.Errorf("merchant profile for mode %q is incomplete", mode)
	}
	return profile, nil
}

func loadMerchantProfile(mode string) (MerchantProfile, error) {
	prefix := "GOOGLEPAY_" + mode + "_"

	connectTimeout, err := envDuration(prefix+"CONNECT_TIMEOUT_MS", 10*time.Second)
	if err != nil {
		return MerchantProfile{}, err
	}
	requestTimeout, err := envDuration(prefix+"REQUEST_TIMEOUT_MS", 45*time.Second)
	if err != nil {
		return MerchantProfile{}, err
	}

	return MerchantProfile{
		SiteID:         os.Getenv(prefix + "SITE_ID"),
		Certificate:    os.Getenv(prefix + "CERTIFICATE"),
		PlatformURL:    getEnv(prefix+"PLATFORM_URL", "https://secure.payzen.eu"),
		CtxMode:        mode,
		ConnectTimeout: connectTimeout,
		RequestTimeout: requestTimeout,
	}, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
