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
	LedgerDriverPostgres = "postgres"
	LedgerDriverMongo    = "mongo"
)

type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Ledger   LedgerConfig
	Digest   DigestConfig
	R2       R2Config
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	// APIToken guards the REST/digest/probe routes; empty disables them.
	APIToken string
}

type TelegramConfig struct {
	BotToken string
	// BroadcastChatID is an extra fixed chat (channel) every digest goes to.
	BroadcastChatID string
	AdminChatID     string
	// WebhookURL switches the bot from long polling to webhook delivery.
	WebhookURL    string
	WebhookSecret string
	Debug         bool
}

type LedgerConfig struct {
	Driver      string
	DatabaseURL string
	MongoURI    string
	DBName      string
	Milestones  string
}

type DigestConfig struct {
	Interval         time.Duration
	Cron             string
	Stores           []string
	SteamMinDiscount int
	FanoutLimit      int
	HTTPTimeout      time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough R2 settings are present to archive digests.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	botToken := getEnv("BOT_TOKEN", os.Getenv("TELEGRAM_BOT_TOKEN"))
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN not set")
	}

	interval, err := time.ParseDuration(getEnv("DIGEST_INTERVAL", "24h"))
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid DIGEST_INTERVAL %q", os.Getenv("DIGEST_INTERVAL"))
	}
	httpTimeout, err := time.ParseDuration(getEnv("STORE_HTTP_TIMEOUT", "20s"))
	if err != nil || httpTimeout <= 0 {
		return nil, fmt.Errorf("invalid STORE_HTTP_TIMEOUT %q", os.Getenv("STORE_HTTP_TIMEOUT"))
	}
	steamMin, err := strconv.Atoi(getEnv("STEAM_MIN_DISCOUNT", "100"))
	if err != nil || steamMin < 1 || steamMin > 100 {
		return nil, fmt.Errorf("STEAM_MIN_DISCOUNT must be between 1 and 100")
	}
	fanout, err := strconv.Atoi(getEnv("DIGEST_FANOUT_LIMIT", "8"))
	if err != nil || fanout < 1 {
		return nil, fmt.Errorf("DIGEST_FANOUT_LIMIT must be a positive integer")
	}
	debug, _ := strconv.ParseBool(getEnv("TELEGRAM_DEBUG", "false"))

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5200"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			APIToken:       os.Getenv("API_TOKEN"),
		},
		Telegram: TelegramConfig{
			BotToken:        botToken,
			BroadcastChatID: os.Getenv("CHAT_ID"),
			AdminChatID:     os.Getenv("ADMIN_CHAT_ID"),
			WebhookURL:      strings.TrimRight(os.Getenv("WEBHOOK_URL"), "/"),
			WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
			Debug:           debug,
		},
		Ledger: LedgerConfig{
			Driver:      strings.ToLower(getEnv("LEDGER_DRIVER", LedgerDriverPostgres)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			MongoURI:    os.Getenv("MONGODB_URI"),
			DBName:      getEnv("DB_NAME", "freebies"),
			Milestones:  os.Getenv("MILESTONES"),
		},
		Digest: DigestConfig{
			Interval:         interval,
			Cron:             os.Getenv("DIGEST_CRON"),
			Stores:           splitList(getEnv("STORES", "epic,gog,steam")),
			SteamMinDiscount: steamMin,
			FanoutLimit:      fanout,
			HTTPTimeout:      httpTimeout,
		},
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	switch cfg.Ledger.Driver {
	case LedgerDriverPostgres:
		if cfg.Ledger.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL not set (LEDGER_DRIVER=postgres)")
		}
	case LedgerDriverMongo:
		if cfg.Ledger.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI not set (LEDGER_DRIVER=mongo)")
		}
	default:
		return nil, fmt.Errorf("unknown LEDGER_DRIVER %q (want postgres or mongo)", cfg.Ledger.Driver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
