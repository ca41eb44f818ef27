package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port        string   `mapstructure:"SERVER_PORT"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

type DBConfig struct {
	URL string `mapstructure:"DB_URL"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
}

type Config struct {
	Server               ServerConfig `mapstructure:",squash"`
	DB                   DBConfig     `mapstructure:",squash"`
	Auth                 AuthConfig   `mapstructure:",squash"`
	PolicyPath           string       `mapstructure:"POLICY_PATH"`
	LogLevel             string       `mapstructure:"LOG_LEVEL"`
	CleanupRetentionDays int          `mapstructure:"CLEANUP_RETENTION_DAYS"`
}

// Load reads configuration from .env.<APP_ENV> (if present) with environment
// variables taking precedence.
func Load() (c Config, err error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("POLICY_PATH", "config/curb_rules.yaml")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ORIGINS", []string{"*"})
	viper.SetDefault("CLEANUP_RETENTION_DAYS", 30)

	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	err = viper.Unmarshal(&c)
	return
}
