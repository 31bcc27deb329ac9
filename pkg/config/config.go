package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ServerAddr  string `envconfig:"SERVER_ADDR" default:":19890"`

	// SourceName is the source the relay attributes events to.
	SourceName string `envconfig:"SOURCE_NAME" default:"partial.ly"`
	// ConfirmPath marks the checkout confirmation page by URL substring.
	ConfirmPath string `envconfig:"CHECKOUT_CONFIRM_PATH" default:"/checkout/confirm"`
	DNTRespect  bool   `envconfig:"DNT_RESPECT" default:"true"`

	// Outputs lists the enabled sinks: log, relay, kafka, meta, gtag, tiktok.
	Outputs []string `envconfig:"OUTPUTS" default:"log"`

	RelayEndpoint string `envconfig:"RELAY_ENDPOINT"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"beacon.events"`
	KafkaAcks    string   `envconfig:"KAFKA_ACKS" default:"all"`

	MetaEndpoint   string `envconfig:"META_ENDPOINT"`
	MetaPixelID    string `envconfig:"META_PIXEL_ID"`
	GoogleEndpoint string `envconfig:"GOOGLE_ENDPOINT"`
	GoogleSendTo   string `envconfig:"GOOGLE_SEND_TO"`
	TikTokEndpoint string `envconfig:"TIKTOK_ENDPOINT"`

	// RedisURL enables the durable visitor-state backend; empty keeps state
	// in memory.
	RedisURL      string `envconfig:"REDIS_URL"`
	StoreTTLHours int    `envconfig:"STORE_TTL_HOURS" default:"2160"`

	EnrichEnabled    bool   `envconfig:"ENRICH_ENABLED" default:"true"`
	EnrichIPv4URL    string `envconfig:"ENRICH_IPV4_URL"`
	EnrichIPv6URL    string `envconfig:"ENRICH_IPV6_URL"`
	EnrichGeoURL     string `envconfig:"ENRICH_GEO_URL"`
	EnrichTimeoutSec int    `envconfig:"ENRICH_TIMEOUT_SEC" default:"5"`

	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:"127.0.0.1:9090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}
