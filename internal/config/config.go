// Package config loads quizforge settings from an optional file, a .env file,
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/quizforge/internal/cache"
	"github.com/abhisek/quizforge/internal/events"
	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/sweeper"
)

// Config holds every setting of the application.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     cache.Config    `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	LLM       llm.Config      `mapstructure:"llm"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Log       LogConfig       `mapstructure:"log"`
}

// DatabaseConfig selects the SQL backend. An empty DSN with the sqlite
// driver means the default data-directory path.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// AMQPConfig configures event publishing. An empty URL disables it.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// QuestionsConfig configures question sources.
type QuestionsConfig struct {
	// Source is the default source: "bank", "llm" or "fallback".
	Source string `mapstructure:"source"`

	// Seed makes bank selection reproducible. 0 seeds from the OS.
	Seed uint64 `mapstructure:"seed"`

	// MaxGenerate caps the questions requested from the LLM per session.
	MaxGenerate int `mapstructure:"max_generate"`
}

// SweeperConfig configures expiry of timed-out sessions.
type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: store.DriverSQLite},
		Server: ServerConfig{
			Addr:         ":8080",
			Mode:         "release",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Redis:     cache.Config{Prefix: cache.DefaultPrefix},
		AMQP:      AMQPConfig{Exchange: events.DefaultExchange},
		LLM:       llm.DefaultConfig(),
		Questions: QuestionsConfig{Source: questiongen.SourceBank, MaxGenerate: questiongen.DefaultConfig().MaxCount},
		Engine:    DefaultEngine(),
		Sweeper:   SweeperConfig{Enabled: true, Interval: sweeper.DefaultInterval},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// envBindings maps config keys to environment variables. The first variable
// that is set wins.
var envBindings = map[string][]string{
	"database.driver": {"QUIZFORGE_DB_DRIVER"},
	"database.dsn":    {"QUIZFORGE_DB_DSN", "QUIZFORGE_DB"},

	"server.addr":         {"QUIZFORGE_SERVER_ADDR"},
	"server.mode":         {"QUIZFORGE_SERVER_MODE", "GIN_MODE"},
	"server.cors_origins": {"QUIZFORGE_CORS_ORIGINS"},

	"redis.addr":     {"QUIZFORGE_REDIS_ADDR", "REDIS_ADDR"},
	"redis.password": {"QUIZFORGE_REDIS_PASSWORD", "REDIS_PASSWORD"},
	"redis.db":       {"QUIZFORGE_REDIS_DB"},
	"redis.prefix":   {"QUIZFORGE_REDIS_PREFIX"},

	"amqp.url":      {"QUIZFORGE_AMQP_URL", "AMQP_URL"},
	"amqp.exchange": {"QUIZFORGE_AMQP_EXCHANGE"},

	"llm.provider":           {"QUIZFORGE_LLM_PROVIDER"},
	"llm.anthropic.api_key":  {"QUIZFORGE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	"llm.anthropic.model":    {"QUIZFORGE_ANTHROPIC_MODEL"},
	"llm.openai.api_key":     {"QUIZFORGE_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"llm.openai.model":       {"QUIZFORGE_OPENAI_MODEL"},
	"llm.gemini.api_key":     {"QUIZFORGE_GEMINI_API_KEY", "GEMINI_API_KEY"},
	"llm.gemini.model":       {"QUIZFORGE_GEMINI_MODEL"},
	"llm.openrouter.api_key": {"QUIZFORGE_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
	"llm.openrouter.model":   {"QUIZFORGE_OPENROUTER_MODEL"},

	"questions.source": {"QUIZFORGE_QUESTION_SOURCE"},
	"questions.seed":   {"QUIZFORGE_QUESTION_SEED"},

	"engine.tier_set":         {"QUIZFORGE_TIER_SET"},
	"engine.xp_formula":       {"QUIZFORGE_XP_FORMULA"},
	"engine.level_divisor":    {"QUIZFORGE_LEVEL_DIVISOR"},
	"engine.grade_scale":      {"QUIZFORGE_GRADE_SCALE"},
	"engine.time_bonus":       {"QUIZFORGE_TIME_BONUS"},
	"engine.unlock_mode":      {"QUIZFORGE_UNLOCK_MODE"},
	"engine.unlock_threshold": {"QUIZFORGE_UNLOCK_THRESHOLD"},
	"engine.unlock_xp_gate":   {"QUIZFORGE_UNLOCK_XP_GATE"},
	"engine.timer_mode":       {"QUIZFORGE_TIMER_MODE"},

	"sweeper.enabled":  {"QUIZFORGE_SWEEPER_ENABLED"},
	"sweeper.interval": {"QUIZFORGE_SWEEPER_INTERVAL"},

	"log.level":  {"QUIZFORGE_LOG_LEVEL"},
	"log.format": {"QUIZFORGE_LOG_FORMAT"},
}

// Load reads .env from the working directory, then configPath when given,
// then the environment. Later sources win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	vip := viper.New()
	for key, envs := range envBindings {
		if err := vip.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Default()
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and out-of-range numbers.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres, "pgx":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != store.DriverSQLite && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for the %s driver", c.Database.Driver)
	}
	switch c.Questions.Source {
	case questiongen.SourceBank, questiongen.SourceLLM, questiongen.SourceFallback:
	default:
		return fmt.Errorf("unknown question source %q", c.Questions.Source)
	}
	if c.LLM.Provider != "" {
		if err := c.LLM.Validate(); err != nil {
			return fmt.Errorf("llm: %w", err)
		}
	}
	if c.Sweeper.Interval < 0 {
		return fmt.Errorf("sweeper interval must not be negative")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// splitList flattens comma-separated entries, which is how list values
// arrive from a single environment variable.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
