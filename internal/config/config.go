package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"

	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	BotToken      string
	TransportMode string
	WebhookURL    string
	Port          string

	LLMProvider     string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	YandexKey       string
	YandexCatalogID string

	StoreDriver string
	MongoURI    string
	MongoDB     string
	DBUser      string
	DBPassword  string
	DBName      string
	DBHost      string
	DBPort      string

	TimezoneAPIKey string
	RedisAddr      string

	PendingReplyTTL   time.Duration
	StoreRetryDelay   time.Duration
	SendRatePerSecond float64

	LogLevel string
	Debug    bool
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{
		BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TransportMode: strings.ToLower(os.Getenv("TRANSPORT_MODE")),
		WebhookURL:    strings.TrimSuffix(os.Getenv("WEBHOOK_URL"), "/"),
		Port:          os.Getenv("PORT"),

		LLMProvider:     strings.ToLower(os.Getenv("LLM_PROVIDER")),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		YandexKey:       os.Getenv("YANDEX_API_KEY"),
		YandexCatalogID: os.Getenv("YANDEX_CATALOG_ID"),

		StoreDriver: strings.ToLower(os.Getenv("STORE_DRIVER")),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     os.Getenv("MONGO_DB"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),

		TimezoneAPIKey: os.Getenv("GOOGLE_TIMEZONE_API_KEY"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),

		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.TransportMode == "" {
		cfg.TransportMode = TransportPolling
	}

	switch cfg.TransportMode {
	case TransportPolling:
	case TransportWebhook:
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("config.Load: WEBHOOK_URL is required in webhook mode")
		}
	default:
		return nil, fmt.Errorf("config.Load: unknown TRANSPORT_MODE %q", cfg.TransportMode)
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderOpenAI
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("config.Load: OPENAI_API_KEY is required")
		}
		if cfg.OpenAIModel == "" {
			cfg.OpenAIModel = "gpt-4"
		}
	case ProviderYandex:
		if cfg.YandexKey == "" || cfg.YandexCatalogID == "" {
			return nil, fmt.Errorf("config.Load: YANDEX_API_KEY, YANDEX_CATALOG_ID are required")
		}
	default:
		return nil, fmt.Errorf("config.Load: unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StoreMongo
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("config.Load: MONGO_URI is required")
		}
		if cfg.MongoDB == "" {
			cfg.MongoDB = "astrologyBotDB"
		}
	case StorePostgres:
		if cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("config.Load: DB_USER, DB_PASSWORD, DB_NAME are required")
		}
		if cfg.DBHost == "" {
			cfg.DBHost = "localhost"
		}
		if cfg.DBPort == "" {
			cfg.DBPort = "5432"
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("config.Load: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.PendingReplyTTL, err = durationEnv("PENDING_REPLY_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	if cfg.StoreRetryDelay, err = durationEnv("STORE_RETRY_DELAY", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.SendRatePerSecond = 25
	if raw := os.Getenv("SEND_RATE_PER_SECOND"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("config.Load: invalid SEND_RATE_PER_SECOND %q", raw)
		}
		cfg.SendRatePerSecond = rate
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))

	return cfg, nil
}

// WebhookEndpoint is the full URL registered with Telegram.
func (c *Config) WebhookEndpoint() string {
	return c.WebhookURL + WebhookPath
}

const WebhookPath = "/telegram-webhook"

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config.Load: invalid %s %q", key, raw)
	}

	return d, nil
}
