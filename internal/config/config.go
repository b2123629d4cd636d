package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Engine   EngineConfig   `koanf:"engine"`
	Poll     PollConfig     `koanf:"poll"`
	Display  DisplayConfig  `koanf:"display"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MaxConnections int    `koanf:"max_connections"`
}

type AuthConfig struct {
	JWTSecret     string `koanf:"jwt_secret"`
	JWTExpiry     string `koanf:"jwt_expiry"`
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
}

type EngineConfig struct {
	RPCURL    string `koanf:"rpc_url"`
	RPCSecret string `koanf:"rpc_secret"`
	Managed   bool   `koanf:"managed"`
	Binary    string `koanf:"binary"`
	DataDir   string `koanf:"data_dir"`
	RPCListen string `koanf:"rpc_listen"`
}

type PollConfig struct {
	ActiveInterval string `koanf:"active_interval"`
	IdleInterval   string `koanf:"idle_interval"`
	DetailInterval string `koanf:"detail_interval"`
}

type DisplayConfig struct {
	MinRunning string `koanf:"min_running"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads config from TOML file (if provided) then overlays env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	// 2. Load TOML config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load env vars: PROXX_SERVER_PORT -> server.port
	// Only set env vars that have non-empty values to avoid overriding TOML config.
	if err := k.Load(env.ProviderWithValue("PROXX_", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		mapped := strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "PROXX_")),
			"_", ".", -1,
		)
		return mapped, value
	}), nil); err != nil {
		return nil, err
	}

	// 4. Handle env vars whose key names contain underscores themselves;
	// the generic mapping above cannot reach these.
	for envKey, cfgKey := range map[string]string{
		"PROXX_DATABASE_URL":      "database.url",
		"PROXX_AUTH_JWT_SECRET":   "auth.jwt_secret",
		"PROXX_ENGINE_RPC_URL":    "engine.rpc_url",
		"PROXX_ENGINE_RPC_SECRET": "engine.rpc_secret",
	} {
		if v := os.Getenv(envKey); v != "" {
			k.Set(cfgKey, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
