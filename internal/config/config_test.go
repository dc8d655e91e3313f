package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("конфигурация по умолчанию должна загружаться: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Session.TTL != time.Hour || cfg.Decoder.MaxSamples != 100 {
		t.Fatalf("неверные значения по умолчанию: %+v", cfg)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" || cfg.LLM.Temperature != 0.4 {
		t.Fatalf("неверные параметры LLM: %+v", cfg.LLM)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flightlog.yaml")
	body := []byte("server:\n  port: \"9090\"\nsession:\n  ttl: 15m\ndecoder:\n  max_samples: 50\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("запись файла: %v", err)
	}

	t.Setenv("FLIGHTLOG_REDIS_ADDR", "redis:6379")
	t.Setenv("FLIGHTLOG_DECODER_MAX_SAMPLES", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Session.TTL != 15*time.Minute {
		t.Fatalf("значения из файла не применились: %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Decoder.MaxSamples != 25 {
		t.Fatalf("переменные окружения должны перекрывать файл: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	bad := *cfg
	bad.Decoder.MaxSamples = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("decoder.max_samples=0 должно давать ошибку")
	}

	bad = *cfg
	bad.LLM.Temperature = 3
	if err := bad.Validate(); err == nil {
		t.Fatal("temperature=3 должно давать ошибку")
	}
}
