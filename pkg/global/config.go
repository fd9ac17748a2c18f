package global

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Config struct {
	Env         string   `env:"ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"4000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	Server      ServerConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	JWT         JWTConfig
	MercadoPago MercadoPagoConfig
	Store       StoreConfig
	AI          AIConfig
}

type ServerConfig struct {
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI,notEmpty"`
	Database string `env:"MONGODB_DATABASE" envDefault:"meti_tejidos"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL  time.Duration `env:"CART_TTL" envDefault:"72h"`
	CacheTTL time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"10m"`
}

// RabbitMQConfig is optional: an empty URL disables order events.
type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL" envDefault:""`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET,notEmpty"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"720h"`
}

// MercadoPagoConfig is optional: an empty token disables gateway checkout.
type MercadoPagoConfig struct {
	AccessToken string        `env:"MP_ACCESS_TOKEN" envDefault:""`
	SuccessURL  string        `env:"MP_SUCCESS_URL" envDefault:"http://localhost:5173/perfil"`
	FailureURL  string        `env:"MP_FAILURE_URL" envDefault:"http://localhost:5173/tienda"`
	PendingURL  string        `env:"MP_PENDING_URL" envDefault:"http://localhost:5173/perfil"`
	Timeout     time.Duration `env:"MP_TIMEOUT" envDefault:"15s"`
}

type StoreConfig struct {
	Currency string `env:"STORE_CURRENCY" envDefault:"ARS"`
}

// CurrencyUnit parses the configured ISO 4217 code.
func (c StoreConfig) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("parse STORE_CURRENCY %q: %w", c.Currency, err)
	}
	return unit, nil
}

// AIConfig is optional: without endpoint and key, admin insights return raw stats only.
type AIConfig struct {
	Endpoint   string `env:"AZURE_OPENAI_ENDPOINT" envDefault:""`
	APIKey     string `env:"AZURE_OPENAI_API_KEY" envDefault:""`
	Deployment string `env:"AZURE_OPENAI_DEPLOYMENT_NAME" envDefault:"gpt-35-turbo"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads an optional .env file, then parses the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Store.CurrencyUnit(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultTimer bounds startup calls such as pings and index creation.
func GetDefaultTimer() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
