package main

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	PublicDir      string   `mapstructure:"PUBLIC_DIR"`
	PublicURL      string   `mapstructure:"PUBLIC_URL"`
	BodyLimit      int64    `mapstructure:"BODY_LIMIT_BYTES"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`
	RabbitMQURL    string   `mapstructure:"RABBITMQ_URL"`

	DB        DBConfig        `mapstructure:",squash"`
	Assets    AssetConfig     `mapstructure:",squash"`
	Mail      MailConfig      `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`
}

type DBConfig struct {
	Driver string `mapstructure:"DB_DRIVER"`
	URL    string `mapstructure:"DATABASE_URL"`
	Name   string `mapstructure:"DATABASE_NAME"`
}

type AssetConfig struct {
	Store               string `mapstructure:"ASSET_STORE"`
	Folder              string `mapstructure:"ASSET_FOLDER"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	S3Bucket            string `mapstructure:"S3_BUCKET"`
	S3Region            string `mapstructure:"S3_REGION"`
	S3Endpoint          string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID       string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey   string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL         string `mapstructure:"S3_PUBLIC_URL"`
}

type MailConfig struct {
	Host     string `mapstructure:"MAIL_HOST"`
	Port     int    `mapstructure:"MAIL_PORT"`
	User     string `mapstructure:"MAIL_USER"`
	Password string `mapstructure:"MAIL_PASSWORD"`
	Sender   string `mapstructure:"MAIL_SENDER"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"RATE_LIMIT_BURST"`
}

// defaults lists every key loadConfig knows about. Keys must be registered for AutomaticEnv
// values to reach Unmarshal.
var defaults = map[string]any{
	"PORT":                  5000,
	"ENVIRONMENT":           "development",
	"VERSION":               "1.0.0",
	"TRUSTED_ORIGINS":       "",
	"PUBLIC_DIR":            "public",
	"PUBLIC_URL":            "",
	"BODY_LIMIT_BYTES":      5 << 20,
	"TLS_CERT_FILE":         "",
	"TLS_KEY_FILE":          "",
	"RABBITMQ_URL":          "",
	"DB_DRIVER":             "mongo",
	"DATABASE_URL":          "mongodb://localhost:27017",
	"DATABASE_NAME":         "nexus",
	"ASSET_STORE":           "cloudinary",
	"ASSET_FOLDER":          "nexus",
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"S3_BUCKET":             "",
	"S3_REGION":             "us-east-1",
	"S3_ENDPOINT":           "",
	"S3_ACCESS_KEY_ID":      "",
	"S3_SECRET_ACCESS_KEY":  "",
	"S3_PUBLIC_URL":         "",
	"MAIL_HOST":             "",
	"MAIL_PORT":             587,
	"MAIL_USER":             "",
	"MAIL_PASSWORD":         "",
	"MAIL_SENDER":           "",
	"RATE_LIMIT_RPS":        0,
	"RATE_LIMIT_BURST":      0,
}

// loadConfig reads the optional .env file at path and overlays the process environment.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.TrustedOrigins = cleanOrigins(config.TrustedOrigins)
	if config.PublicURL == "" {
		config.PublicURL = "http://localhost:" + strconv.Itoa(config.Port)
	}

	return &config, nil
}

func cleanOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
