package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config contém as configurações da aplicação
type Config struct {
	TelegramBotToken     string
	TelegramChatID       int64
	CheckIntervalMinutes int
	CheckInterval        time.Duration

	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string

	SourceTimeout      time.Duration
	ChromeBin          string
	BrowserMaxSessions int

	Ebay   Credentials
	Amazon Credentials

	LogLevel string
}

// Credentials são as credenciais de um marketplace com API
type Credentials struct {
	APIKey    string
	APISecret string
	AppID     string
	BaseURL   string
}

// Load carrega as configurações das variáveis de ambiente.
// Valores numéricos inválidos mantêm o padrão.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		CheckIntervalMinutes: 30,
		DatabaseDriver:       "sqlite3",
		DatabasePath:         "./anuncios.db",
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SourceTimeout:        45 * time.Second,
		ChromeBin:            os.Getenv("CHROME_BIN"),
		BrowserMaxSessions:   4,
		LogLevel:             "info",
		Ebay: Credentials{
			APIKey:  os.Getenv("EBAY_API_KEY"),
			AppID:   os.Getenv("EBAY_APP_ID"),
			BaseURL: os.Getenv("EBAY_BASE_URL"),
		},
		Amazon: Credentials{
			APIKey:    os.Getenv("AMAZON_API_KEY"),
			APISecret: os.Getenv("AMAZON_API_SECRET"),
			BaseURL:   os.Getenv("AMAZON_BASE_URL"),
		},
	}

	// Chat ID é opcional (restringe os comandos a um chat)
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.TelegramChatID = chatID
		}
	}

	// Intervalo de verificação
	if parsed, ok := positiveInt("CHECK_INTERVAL_MINUTES"); ok {
		cfg.CheckIntervalMinutes = parsed
	}
	cfg.CheckInterval = time.Duration(cfg.CheckIntervalMinutes) * time.Minute

	if parsed, ok := positiveInt("SOURCE_TIMEOUT_SECONDS"); ok {
		cfg.SourceTimeout = time.Duration(parsed) * time.Second
	}
	if parsed, ok := positiveInt("BROWSER_MAX_SESSIONS"); ok {
		cfg.BrowserMaxSessions = parsed
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.DatabaseDriver = v
	}
	switch cfg.DatabaseDriver {
	case "sqlite3", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL não configurado para o driver postgres")
		}
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER desconhecido: %s", cfg.DatabaseDriver)
	}

	return cfg, nil
}

func positiveInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
