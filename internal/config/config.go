package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	Minio      MinioConfig      `toml:"minio"`
	Razorpay   RazorpayConfig   `toml:"razorpay"`
	CardRender CardRenderConfig `toml:"card_render"`
	SMTP       SMTPConfig       `toml:"smtp"`
	JWT        JWTConfig        `toml:"jwt"`
	Frontend   FrontendConfig   `toml:"frontend"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// RazorpayConfig contains payment gateway credentials.
type RazorpayConfig struct {
	KeyID     string `toml:"key_id"`
	KeySecret string `toml:"key_secret"`
	BaseURL   string `toml:"base_url"`
}

// CardRenderConfig contains the external card-rendering API settings.
type CardRenderConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

type SMTPConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	From         string `toml:"from"`
	SupportEmail string `toml:"support_email"`
}

type JWTConfig struct {
	Secret string `toml:"secret"`
}

type FrontendConfig struct {
	URL string `toml:"url"`
}

// Load reads configuration from the TOML file at path (if it exists)
// and then applies environment variable overrides. Environment always
// wins so deployments can keep secrets out of the file.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:     ServerConfig{Port: 8080},
		Redis:      RedisConfig{Addr: "localhost:6379"},
		Minio:      MinioConfig{Endpoint: "localhost:9000", AccessKey: "minioadmin", SecretKey: "minioadmin", Bucket: "instaviz-uploads"},
		Razorpay:   RazorpayConfig{BaseURL: "https://api.razorpay.com/v1"},
		CardRender: CardRenderConfig{URL: "https://dev.anurcloud.com/dvc/api/v1/create-card"},
		SMTP:       SMTPConfig{Port: 587, SupportEmail: "support@instaviz.com"},
		Frontend:   FrontendConfig{URL: "http://localhost:3000"},
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (set database.url or DATABASE_URL)")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Database.URL, "DATABASE_URL")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideInt(&cfg.Redis.DB, "REDIS_DB")
	overrideString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	overrideString(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	overrideString(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	overrideBool(&cfg.Minio.UseSSL, "MINIO_USE_SSL")
	overrideString(&cfg.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	overrideString(&cfg.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	overrideString(&cfg.CardRender.URL, "CARD_RENDER_URL")
	overrideString(&cfg.CardRender.APIKey, "CARD_RENDER_API_KEY")
	overrideString(&cfg.SMTP.Host, "SMTP_HOST")
	overrideInt(&cfg.SMTP.Port, "SMTP_PORT")
	overrideString(&cfg.SMTP.Username, "SMTP_USERNAME")
	overrideString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	overrideString(&cfg.SMTP.From, "SMTP_FROM")
	overrideString(&cfg.JWT.Secret, "JWT_SECRET")
	overrideString(&cfg.Frontend.URL, "FRONTEND_URL")
	overrideInt(&cfg.Server.Port, "PORT")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}
