package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAddr         = ":8080"
	DefaultStaticDir    = "web"
	DefaultCacheTTL     = time.Hour
	DefaultTickInterval = 150 * time.Millisecond
	DefaultLineWindow   = 3 * time.Second
	DefaultIdleTTL      = time.Hour
)

// TomlConfig mirrors the on-disk config file.
type TomlConfig struct {
	Server struct {
		Addr      string `toml:"addr"`
		StaticDir string `toml:"static_dir"`
	} `toml:"server"`

	Cache struct {
		Backend  string `toml:"backend"` // "memory" or "redis"
		TTL      string `toml:"ttl"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"cache"`

	Session struct {
		TickInterval string `toml:"tick_interval"`
		LineWindow   string `toml:"line_window"`
		IdleTTL      string `toml:"idle_ttl"`
	} `toml:"session"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI-compatible endpoints
	} `toml:"ai"`

	Translate struct {
		SecretID  string `toml:"secret_id"`
		SecretKey string `toml:"secret_key"`
	} `toml:"translate"`
}

type ServerConfig struct {
	Addr      string
	StaticDir string
}

type CacheConfig struct {
	Backend  string
	TTL      time.Duration
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TickInterval time.Duration
	LineWindow   time.Duration
	IdleTTL      time.Duration
}

type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
}

type TranslateConfig struct {
	SecretID  string
	SecretKey string
}

type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Session   SessionConfig
	AI        AIConfig
	Translate TranslateConfig
}

func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "pinyin-ktv", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("cannot get user home directory")
		return "config.toml"
	}

	return filepath.Join(homeDir, ".config", "pinyin-ktv", "config.toml")
}

func loadTomlConfig(path string) (*TomlConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("config file not found, using defaults")
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("loaded config")
	return &config, nil
}

// Load reads the config file from the XDG config directory (or the
// path in PINYIN_KTV_CONFIG when set) and applies defaults for every
// missing field. A broken config file degrades to defaults rather than
// refusing to start.
func Load() *Config {
	path := os.Getenv("PINYIN_KTV_CONFIG")
	if path == "" {
		path = getConfigPath()
	}

	tomlConfig, err := loadTomlConfig(path)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config file, using defaults")
		tomlConfig = &TomlConfig{}
	}

	config := &Config{
		Server: ServerConfig{
			Addr:      DefaultAddr,
			StaticDir: DefaultStaticDir,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     DefaultCacheTTL,
			Addr:    "localhost:6379",
		},
		Session: SessionConfig{
			TickInterval: DefaultTickInterval,
			LineWindow:   DefaultLineWindow,
			IdleTTL:      DefaultIdleTTL,
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
	}

	if tomlConfig.Server.Addr != "" {
		config.Server.Addr = tomlConfig.Server.Addr
	}
	if tomlConfig.Server.StaticDir != "" {
		config.Server.StaticDir = tomlConfig.Server.StaticDir
	}

	if tomlConfig.Cache.Backend != "" {
		config.Cache.Backend = tomlConfig.Cache.Backend
	}
	overrideDuration(&config.Cache.TTL, tomlConfig.Cache.TTL, "cache.ttl")
	if tomlConfig.Cache.Addr != "" {
		config.Cache.Addr = tomlConfig.Cache.Addr
	}
	if tomlConfig.Cache.Password != "" {
		config.Cache.Password = tomlConfig.Cache.Password
	}
	if tomlConfig.Cache.DB != 0 {
		config.Cache.DB = tomlConfig.Cache.DB
	}

	overrideDuration(&config.Session.TickInterval, tomlConfig.Session.TickInterval, "session.tick_interval")
	overrideDuration(&config.Session.LineWindow, tomlConfig.Session.LineWindow, "session.line_window")
	overrideDuration(&config.Session.IdleTTL, tomlConfig.Session.IdleTTL, "session.idle_ttl")

	if tomlConfig.AI.ModuleName != "" {
		config.AI.ModuleName = tomlConfig.AI.ModuleName
	}
	config.AI.APIKey = tomlConfig.AI.APIKey
	config.AI.BaseURL = tomlConfig.AI.BaseURL

	config.Translate.SecretID = tomlConfig.Translate.SecretID
	config.Translate.SecretKey = tomlConfig.Translate.SecretKey

	if config.AI.APIKey == "" {
		log.Info().Msg("no ai api key configured, song info extraction will use the heuristic only")
	}

	return config
}

func overrideDuration(dst *time.Duration, raw, field string) {
	if raw == "" {
		return
	}
	duration, err := time.ParseDuration(raw)
	if err != nil || duration <= 0 {
		log.Warn().Str("field", field).Str("value", raw).Msg("invalid duration, using default")
		return
	}
	*dst = duration
}
