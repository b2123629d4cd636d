package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8640,

		"database.max_connections": 10,

		"auth.jwt_expiry":     "24h",
		"auth.admin_username": "admin",

		"engine.rpc_url":    "http://localhost:9700/jsonrpc",
		"engine.rpc_secret": "",
		"engine.managed":    false,
		"engine.binary":     "renderd",
		"engine.data_dir":   "/data/renderd",
		"engine.rpc_listen": "127.0.0.1:9700",

		"poll.active_interval": "2s",
		"poll.idle_interval":   "10s",
		"poll.detail_interval": "3s",

		"display.min_running": "1500ms",

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
