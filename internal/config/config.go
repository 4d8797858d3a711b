package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	CardanoNetwork string `env:"CARDANO_NETWORK" envDefault:"mainnet"`

	IndexerBaseURL   string        `env:"INDEXER_BASE_URL,required,notEmpty"`
	IndexerAPIKey    string        `env:"INDEXER_API_KEY"`
	IndexerRateLimit float64       `env:"INDEXER_RATE_LIMIT" envDefault:"10"`
	IndexerBurst     int           `env:"INDEXER_BURST" envDefault:"5"`
	IPFSGateway      string        `env:"IPFS_GATEWAY" envDefault:"https://ipfs.io/ipfs/"`
	MetadataMaxBytes int64         `env:"METADATA_MAX_BYTES" envDefault:"5242880"`
	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`

	EnrichConcurrency int           `env:"ENRICH_CONCURRENCY" envDefault:"0"`
	EnrichTimeout     time.Duration `env:"ENRICH_TIMEOUT" envDefault:"30s"`

	CacheEnabled    bool   `env:"CACHE_ENABLED" envDefault:"true"`
	CacheMaxEntries int    `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`

	DatabaseURL string `env:"DATABASE_URL"`

	AdminJWTSecret string        `env:"ADMIN_JWT_SECRET"`
	AdminTokenTTL  time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"1h"`

	RationaleSinkURL       string        `env:"RATIONALE_SINK_URL"`
	RationaleSinkToken     string        `env:"RATIONALE_SINK_TOKEN"`
	RationalePublishMax    int           `env:"RATIONALE_PUBLISH_MAX" envDefault:"5"`
	RationalePublishWindow time.Duration `env:"RATIONALE_PUBLISH_WINDOW" envDefault:"1m"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CardanoNetwork {
	case "mainnet", "preprod", "preview":
	default:
		return fmt.Errorf("CARDANO_NETWORK must be mainnet, preprod or preview, got %q", c.CardanoNetwork)
	}
	if c.MetadataMaxBytes <= 0 {
		return fmt.Errorf("METADATA_MAX_BYTES must be positive")
	}
	if c.EnrichConcurrency < 0 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be >= 0")
	}
	return nil
}
