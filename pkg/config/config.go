package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddress         = "0.0.0.0"
	defaultPort            = 8080
	defaultDBPath          = "./.database"
	defaultEngineName      = "curbdb"
	defaultActiveThreshold = 30 * time.Second
	defaultSlowThreshold   = 200 * time.Millisecond
	defaultMaxBodySize     = 1 << 20 // 1 MiB
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultRateRPS         = 100
	defaultRateBurst       = 200
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	// snapshots
	defaultSnapshotCron = "0 3 * * *" // daily at 03:00
	defaultSnapshotDir  = "./.snapshots"
	defaultSnapshotKeep = 7
	// event fan-out
	defaultKafkaTopic         = "curbdb.events"
	defaultEventQueueCapacity = 4096
	defaultRedisKey           = "curbdb:presence"
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRateRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultRateBurst
	}
	api := &c.Server.API
	if api.MaxBodySize <= 0 {
		api.MaxBodySize = SizeBytes(defaultMaxBodySize)
	}
	if api.ReadTimeout <= 0 {
		api.ReadTimeout = Duration(defaultReadTimeout)
	}
	if api.WriteTimeout <= 0 {
		api.WriteTimeout = Duration(defaultWriteTimeout)
	}

	if c.Engine.Name == "" {
		c.Engine.Name = defaultEngineName
	}
	if c.Engine.ActiveThreshold <= 0 {
		c.Engine.ActiveThreshold = Duration(defaultActiveThreshold)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Telemetry.SlowThreshold <= 0 {
		c.Telemetry.SlowThreshold = Duration(defaultSlowThreshold)
	}

	if c.Snapshot.Cron == "" {
		c.Snapshot.Cron = defaultSnapshotCron
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = defaultSnapshotDir
	}
	if c.Snapshot.Keep == 0 {
		c.Snapshot.Keep = defaultSnapshotKeep
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaultKafkaTopic
	}
	if c.Kafka.QueueCapacity <= 0 {
		c.Kafka.QueueCapacity = defaultEventQueueCapacity
	}
	if c.Redis.Key == "" {
		c.Redis.Key = defaultRedisKey
	}
}

// Summary renders the settings worth printing at startup. Secrets are
// reported by count only.
func (c *Config) Summary() []string {
	items := []string{
		"addr: " + c.Addr(),
		"db_path: " + c.Server.DBPath,
		"engine: " + c.Engine.Name,
		fmt.Sprintf("active_threshold: %s", c.Engine.ActiveThreshold.Duration()),
		fmt.Sprintf("rate_limit: %.0f rps, burst %d", c.Server.RateLimit.RPS, c.Server.RateLimit.Burst),
		"max_body_size: " + c.Server.API.MaxBodySize.String(),
		fmt.Sprintf("signing_keys: %d, jwt: %t", len(c.Auth.SigningKeys), c.Auth.JWTSecret != ""),
	}
	if c.Snapshot.Enabled {
		items = append(items, fmt.Sprintf("snapshots: %q into %s, keep %d", c.Snapshot.Cron, c.Snapshot.Dir, c.Snapshot.Keep))
	}
	if c.Kafka.Enabled {
		items = append(items, fmt.Sprintf("kafka: %s -> %s", strings.Join(c.Kafka.Brokers, ","), c.Kafka.Topic))
	}
	if c.Redis.Enabled {
		items = append(items, fmt.Sprintf("redis: %s key %s", c.Redis.Addr, c.Redis.Key))
	}
	return items
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CURBDB_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
