package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer  `yaml:"http_server"`
	Booking     BookingDefaults `yaml:"booking"`
	Cache       CacheConfig     `yaml:"cache"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// BookingDefaults seed the site settings row when none exists yet.
// Live values come from the settings endpoint and are stored in the DB.
type BookingDefaults struct {
	SlotGranularityMinutes int `yaml:"slot_granularity_minutes" env-default:"30"`
	MinLeadTimeMinutes     int `yaml:"min_lead_time_minutes" env-default:"60"`
	MinDaysAhead           int `yaml:"min_days_ahead" env-default:"0"`
	MaxDaysAhead           int `yaml:"max_days_ahead" env-default:"60"`
}

type CacheConfig struct {
	Prefix string        `yaml:"prefix" env-default:"salon"`
	TTL    time.Duration `yaml:"ttl" env-default:"5m"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
