package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type LLMConfig struct {
	Provider string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolTTL  time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	IngestKey   string
	ProviderKey string
}

type DatasetConfig struct {
	Dir string
}

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Dataset DatasetConfig
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		LLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "llama3.1:8b",
			Timeout:  2 * time.Minute,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "novaengine",
		},
		Redis: RedisConfig{
			Addr:    "",
			PoolTTL: 5 * time.Minute,
		},
		Auth: AuthConfig{},
		Dataset: DatasetConfig{
			Dir: "./datasets",
		},
	}
}

// fileConfig mirrors Config for HCL decoding. Blocks are optional and
// durations are strings so a file only has to name what it overrides.
type fileConfig struct {
	Server *struct {
		Addr            string   `hcl:"addr,optional"`
		ReadTimeout     string   `hcl:"read_timeout,optional"`
		WriteTimeout    string   `hcl:"write_timeout,optional"`
		ShutdownTimeout string   `hcl:"shutdown_timeout,optional"`
		AllowedOrigins  []string `hcl:"allowed_origins,optional"`
	} `hcl:"server,block"`
	LLM *struct {
		Provider string `hcl:"provider,optional"`
		BaseURL  string `hcl:"base_url,optional"`
		Model    string `hcl:"model,optional"`
		Timeout  string `hcl:"timeout,optional"`
	} `hcl:"llm,block"`
	Mongo *struct {
		URI      string `hcl:"uri,optional"`
		Database string `hcl:"database,optional"`
	} `hcl:"mongo,block"`
	Redis *struct {
		Addr     string `hcl:"addr,optional"`
		Password string `hcl:"password,optional"`
		DB       int    `hcl:"db,optional"`
		PoolTTL  string `hcl:"pool_ttl,optional"`
	} `hcl:"redis,block"`
	Auth *struct {
		JWTSecret   string `hcl:"jwt_secret,optional"`
		IngestKey   string `hcl:"ingest_key,optional"`
		ProviderKey string `hcl:"provider_key,optional"`
	} `hcl:"auth,block"`
	Dataset *struct {
		Dir string `hcl:"dir,optional"`
	} `hcl:"dataset,block"`
}

// FromFile overlays an HCL config file onto the defaults. Empty values in
// the file keep the default.
func FromFile(path string) (*Config, error) {
	var file fileConfig
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := Default()

	if b := file.Server; b != nil {
		setString(&cfg.Server.Addr, b.Addr)
		if err := setDuration(&cfg.Server.ReadTimeout, b.ReadTimeout); err != nil {
			return nil, fmt.Errorf("server.read_timeout: %w", err)
		}
		if err := setDuration(&cfg.Server.WriteTimeout, b.WriteTimeout); err != nil {
			return nil, fmt.Errorf("server.write_timeout: %w", err)
		}
		if err := setDuration(&cfg.Server.ShutdownTimeout, b.ShutdownTimeout); err != nil {
			return nil, fmt.Errorf("server.shutdown_timeout: %w", err)
		}
		if len(b.AllowedOrigins) > 0 {
			cfg.Server.AllowedOrigins = b.AllowedOrigins
		}
	}
	if b := file.LLM; b != nil {
		setString(&cfg.LLM.Provider, b.Provider)
		setString(&cfg.LLM.BaseURL, b.BaseURL)
		setString(&cfg.LLM.Model, b.Model)
		if err := setDuration(&cfg.LLM.Timeout, b.Timeout); err != nil {
			return nil, fmt.Errorf("llm.timeout: %w", err)
		}
	}
	if b := file.Mongo; b != nil {
		setString(&cfg.Mongo.URI, b.URI)
		setString(&cfg.Mongo.Database, b.Database)
	}
	if b := file.Redis; b != nil {
		setString(&cfg.Redis.Addr, b.Addr)
		setString(&cfg.Redis.Password, b.Password)
		if b.DB != 0 {
			cfg.Redis.DB = b.DB
		}
		if err := setDuration(&cfg.Redis.PoolTTL, b.PoolTTL); err != nil {
			return nil, fmt.Errorf("redis.pool_ttl: %w", err)
		}
	}
	if b := file.Auth; b != nil {
		setString(&cfg.Auth.JWTSecret, b.JWTSecret)
		setString(&cfg.Auth.IngestKey, b.IngestKey)
		setString(&cfg.Auth.ProviderKey, b.ProviderKey)
	}
	if b := file.Dataset; b != nil {
		setString(&cfg.Dataset.Dir, b.Dir)
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
