package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig groups everything the auth core needs. The JWT secret is injected
// here at process start; nothing else in the codebase holds signing material.
type AuthConfig struct {
	JWT struct {
		SecretKey      string        `mapstructure:"secretKey"`
		Issuer         string        `mapstructure:"issuer"`
		AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
		ResetTokenTTL  time.Duration `mapstructure:"resetTokenTTL"`
	} `mapstructure:"jwt"`
	BcryptCost       int           `mapstructure:"bcryptCost"`
	IdentityCacheTTL time.Duration `mapstructure:"identityCacheTTL"`
	RateLimit        struct {
		Window       time.Duration `mapstructure:"window"`
		AuthRequests int           `mapstructure:"authRequests"` // login, signup, reset
		UserRequests int           `mapstructure:"userRequests"` // /users/me and friends
	} `mapstructure:"rateLimit"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("CONTACTS")
	v.AutomaticEnv()
	// Secrets come from the environment in anything but local dev.
	_ = v.BindEnv("auth.jwt.secretKey", "CONTACTS_JWT_SECRET")
	_ = v.BindEnv("repositories.postgres.password", "CONTACTS_POSTGRES_PASSWORD")
	_ = v.BindEnv("repositories.redis.password", "CONTACTS_REDIS_PASSWORD")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
