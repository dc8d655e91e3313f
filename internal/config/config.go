package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"uav-log-analyzer/internal/logging"
)

// Config конфигурация приложения
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Session SessionConfig  `mapstructure:"session"`
	Decoder DecoderConfig  `mapstructure:"decoder"`
	LLM     LLMConfig      `mapstructure:"llm"`
	Logging logging.Config `mapstructure:"logging"`
}

// ServerConfig параметры HTTP сервера
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	MaxFormBytes    int64         `mapstructure:"max_form_bytes"`
}

// RedisConfig подключение к Redis. Пустой Addr означает хранение сессий в памяти.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig время жизни сессий
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// DecoderConfig нормализация загруженных логов
type DecoderConfig struct {
	MaxSamples int `mapstructure:"max_samples"`
}

// LLMConfig OpenAI-совместимый endpoint. Пустой APIKey включает офлайн-режим.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Load собирает конфигурацию из файла, окружения и значений по умолчанию
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLIGHTLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_upload_bytes", int64(64<<20))
	v.SetDefault("server.max_form_bytes", int64(1<<20))

	// ключи без значения по умолчанию тоже регистрируются, чтобы AutomaticEnv их видел
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl", "1h")

	v.SetDefault("decoder.max_samples", 100)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be greater than zero")
	}
	if c.Server.MaxFormBytes <= 0 {
		return fmt.Errorf("server.max_form_bytes must be greater than zero")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be greater than zero")
	}
	if c.Decoder.MaxSamples <= 0 {
		return fmt.Errorf("decoder.max_samples must be greater than zero")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	if c.LLM.APIKey != "" && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required when llm.api_key is set")
	}
	return nil
}
