package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the results of applying environment overrides
type EnvResult struct {
	EnvUsed bool
	Applied []string
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	DBPath  string
	Sources []string // in order of precedence, lowest first
}

// parses command-line flags from args; you can only pass 3 config values
func ParseConfigFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("curbdb", flag.ContinueOnError)
	addrPtr := fs.String("addr", "", "HTTP listen address (host:port)")
	dbPtr := fs.String("db", "", "Pebble DB path")
	cfgPtr := fs.String("config", "./config.yaml", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// applies CURBDB_* environment variables on top of cfg
func ParseConfigEnvs(cfg *Config) (EnvResult, error) {
	var res EnvResult
	var firstErr error
	get := func(name string) (string, bool) {
		v, ok := os.LookupEnv("CURBDB_" + name)
		v = strings.TrimSpace(v)
		if ok && v != "" {
			res.EnvUsed = true
			res.Applied = append(res.Applied, name)
			return v, true
		}
		return "", false
	}
	fail := func(name string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("CURBDB_%s: %w", name, err)
		}
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := get(name); ok {
			*dst = parseList(v)
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			*dst = parseBool(v)
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				fail(name, err)
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *Duration) {
		if v, ok := get(name); ok {
			d, err := parseDuration(v)
			if err != nil {
				fail(name, err)
				return
			}
			*dst = d
		}
	}

	if v, ok := get("ADDR"); ok {
		host, port, err := splitAddr(v)
		if err != nil {
			fail("ADDR", err)
		} else {
			cfg.Server.Address, cfg.Server.Port = host, port
		}
	}
	str("SERVER_ADDRESS", &cfg.Server.Address)
	integer("SERVER_PORT", &cfg.Server.Port)
	str("DB_PATH", &cfg.Server.DBPath)
	list("CORS_ORIGINS", &cfg.Server.CORS.AllowedOrigins)
	if v, ok := get("RATE_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail("RATE_RPS", err)
		} else {
			cfg.Server.RateLimit.RPS = f
		}
	}
	integer("RATE_BURST", &cfg.Server.RateLimit.Burst)
	if v, ok := get("MAX_BODY_SIZE"); ok {
		s, err := parseSize(v)
		if err != nil {
			fail("MAX_BODY_SIZE", err)
		} else {
			cfg.Server.API.MaxBodySize = s
		}
	}

	str("ENGINE_NAME", &cfg.Engine.Name)
	duration("ACTIVE_THRESHOLD", &cfg.Engine.ActiveThreshold)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	duration("SLOW_THRESHOLD", &cfg.Telemetry.SlowThreshold)

	boolean("SNAPSHOT_ENABLED", &cfg.Snapshot.Enabled)
	str("SNAPSHOT_CRON", &cfg.Snapshot.Cron)
	str("SNAPSHOT_DIR", &cfg.Snapshot.Dir)
	integer("SNAPSHOT_KEEP", &cfg.Snapshot.Keep)

	boolean("KAFKA_ENABLED", &cfg.Kafka.Enabled)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)

	boolean("REDIS_ENABLED", &cfg.Redis.Enabled)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	integer("REDIS_DB", &cfg.Redis.DB)
	str("REDIS_KEY", &cfg.Redis.Key)

	list("SIGNING_KEYS", &cfg.Auth.SigningKeys)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)

	return res, firstErr
}

// layers flags over env over the config file; defaults fill the rest
func LoadEffectiveConfig(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfg, found, err := ParseConfigFile(flags)
	if err != nil {
		return res, err
	}
	if flags.Set["config"] && !found {
		return res, fmt.Errorf("config file %s not found", flags.Config)
	}
	if found {
		res.Sources = append(res.Sources, "config")
	}

	envRes, err := ParseConfigEnvs(cfg)
	if err != nil {
		return res, err
	}
	if envRes.EnvUsed {
		res.Sources = append(res.Sources, "env")
	}

	if flags.Set["addr"] {
		host, port, err := splitAddr(flags.Addr)
		if err != nil {
			return res, fmt.Errorf("--addr: %w", err)
		}
		cfg.Server.Address, cfg.Server.Port = host, port
	}
	if flags.Set["db"] {
		cfg.Server.DBPath = flags.DB
	}
	if flags.Set["addr"] || flags.Set["db"] {
		res.Sources = append(res.Sources, "flags")
	}

	cfg.ApplyDefaults()
	res.Config = cfg
	res.Addr = cfg.Addr()
	res.DBPath = cfg.Server.DBPath
	if len(res.Sources) == 0 {
		res.Sources = []string{"defaults"}
	}
	return res, nil
}

func parseList(v string) []string {
	parts := []string{}
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// splits host:port; ":8080" keeps the default host
func splitAddr(a string) (string, int, error) {
	h, p, err := net.SplitHostPort(a)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return h, port, nil
}
