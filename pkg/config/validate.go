package config

import (
	"fmt"
	"strings"

	"github.com/adhocore/gronx"
)

// fail fast on critical errors; expects defaults to be applied
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	if strings.TrimSpace(eff.DBPath) == "" {
		return fmt.Errorf("database path is empty: set --db flag, CURBDB_DB_PATH env, or server.db_path in config")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q: want text or json", cfg.Logging.Format)
	}

	snap := cfg.Snapshot
	if snap.Enabled {
		if !gronx.New().IsValid(snap.Cron) {
			return fmt.Errorf("invalid snapshot.cron: not a valid cron expression")
		}
		if snap.Keep < 1 {
			return fmt.Errorf("snapshot.keep must be at least 1")
		}
		if strings.TrimSpace(snap.Dir) == "" {
			return fmt.Errorf("snapshot.dir is empty")
		}
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka enabled but kafka.brokers is empty")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("kafka enabled but kafka.topic is empty")
		}
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis enabled but redis.addr is empty")
	}
	return nil
}
