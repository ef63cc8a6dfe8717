package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/icomp-shop/customer-auth/pkg/notification"
)

// ServerConfig holds the HTTP listener and storefront settings
type ServerConfig struct {
	Addr     string `env:"SERVER_ADDR" env-default:":4000"`
	StoreURL string `env:"STORE_URL" env-default:"http://localhost:3000"`
}

// JwtConfig holds the session token signing settings
type JwtConfig struct {
	Secret string `env:"JWT_SECRET" env-default:"supersecret"`
}

// DbConfig holds the Postgres connection settings
type DbConfig struct {
	Host     string `env:"AUTH_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTH_PG_PORT" env-default:"5432"`
	Database string `env:"AUTH_PG_DATABASE" env-default:"shop_db"`
	User     string `env:"AUTH_PG_USER" env-default:"shop"`
	Password string `env:"AUTH_PG_PASSWORD" env-default:"pwd"`
}

// ConnString returns the pgx connection URL
func (d DbConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// EmailConfig holds the SMTP delivery settings
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@icomp.example"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ToSMTPConfig converts the env settings into the notifier's SMTP config
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		TLS:      e.TLS,
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
	}
}

// Config is the full service configuration read from the environment.
// Storage selects the customer store backend: "memory" or "postgres".
type Config struct {
	ServerConfig ServerConfig
	JwtConfig    JwtConfig
	DbConfig     DbConfig
	EmailConfig  EmailConfig
	Storage      string `env:"AUTH_STORAGE" env-default:"postgres"`
}

// Load reads the configuration from environment variables
func Load() (Config, error) {
	config := Config{}
	if err := cleanenv.ReadEnv(&config); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return config, nil
}
