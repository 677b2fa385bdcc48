package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"

	ProviderYahoo = "yahoo"
	ProviderEODHD = "eodhd"
	ProviderSim   = "sim"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	GinMode    string `env:"GIN_MODE" envDefault:"debug"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
	NumWorkers int    `env:"NUM_WORKERS" envDefault:"5"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"console"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"userdata"`

	DB DB

	Quote Quote

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"trades"`

	WSInterval time.Duration `env:"WS_INTERVAL" envDefault:"1s"`
}

type DB struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5433"`
	User     string `env:"DB_USER" envDefault:"trader"`
	Password string `env:"DB_PASSWORD" envDefault:"trading123"`
	Name     string `env:"DB_NAME" envDefault:"trading_db"`
}

type Quote struct {
	Provider  string        `env:"QUOTE_PROVIDER" envDefault:"yahoo"`
	EODHDKey  string        `env:"EODHD_API_KEY"`
	Timeout   time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	CacheTTL  time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"5s"`
	SimSeed   int64         `env:"QUOTE_SIM_SEED" envDefault:"1"`
	SimINRUSD float64       `env:"QUOTE_SIM_USDINR" envDefault:"83"`
}

// ConnString builds a lib/pq connection string
func (d DB) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name,
	)
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load(files ...string) (Config, bool, error) {
	found := godotenv.Load(files...) == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, found, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, found, err
	}
	return cfg, found, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Quote.Provider {
	case ProviderYahoo, ProviderSim:
	case ProviderEODHD:
		if c.Quote.EODHDKey == "" {
			return fmt.Errorf("EODHD_API_KEY is required for QUOTE_PROVIDER=%s", ProviderEODHD)
		}
	default:
		return fmt.Errorf("unknown QUOTE_PROVIDER %q", c.Quote.Provider)
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.GinMode)
	}

	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be positive, got %d", c.NumWorkers)
	}
	return nil
}
