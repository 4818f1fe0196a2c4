package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string            `yaml:"env" env-default:"local"`
	API            APIConfig         `yaml:"api"`
	Credentials    CredentialsConfig `yaml:"credentials"`
	Session        SessionConfig     `yaml:"session"`
	HTTP           HTTPConfig        `yaml:"http"`
	GRPC           GRPCConfig        `yaml:"grpc"`
	MigrationsPath string            `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:8081"`
	Key     string        `yaml:"key" env:"API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s"`
}

type CredentialsConfig struct {
	Driver      string        `yaml:"driver" env:"CREDENTIALS_DRIVER" env-default:"sqlite"`
	StoragePath string        `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./storage/estatemetrics.db"`
	RedisAddr   string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB     int           `yaml:"redis_db" env:"REDIS_DB"`
	Namespace   string        `yaml:"namespace" env:"CREDENTIALS_NAMESPACE" env-default:"estatemetrics"`
	AccessTTL   time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL  time.Duration `yaml:"refresh_ttl" env-default:"168h"`
	ExpiresTTL  time.Duration `yaml:"expires_ttl" env-default:"168h"`
}

type SessionConfig struct {
	RefreshThreshold time.Duration `yaml:"refresh_threshold" env-default:"5m"`
	RefreshTimeout   time.Duration `yaml:"refresh_timeout" env-default:"10s"`
}

type HTTPConfig struct {
	Port        int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
	UpstreamURL string        `yaml:"upstream_url" env:"UPSTREAM_URL" env-default:"http://localhost:8081"`
	UpstreamKey string        `yaml:"upstream_key" env:"UPSTREAM_KEY"`
}

type GRPCConfig struct {
	Port    int           `yaml:"port" env:"GRPC_PORT" env-default:"44044"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
	Trusted []string      `yaml:"trusted"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load reads the config file at path; environment variables override it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	return &cfg, nil
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
// Default value is empty string.
func fetchConfigPath() string {
	var res string

	if !flag.Parsed() {
		flag.StringVar(&res, "config", "", "path to config file")
	}
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
