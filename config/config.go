// Package config loads econcore settings from a TOML file and ECON_*
// environment variables.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/nathoo/econcore/engine/state"
)

// Config holds all configuration for the economy server and console.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Backup  StoreConfig   `mapstructure:"backup"`
	Economy EconomyConfig `mapstructure:"economy"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Play    PlayConfig    `mapstructure:"play"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level     string `mapstructure:"level" toml:"level"`   // debug, info, warn, error
	Format    string `mapstructure:"format" toml:"format"` // json, text, console
	AddSource bool   `mapstructure:"add_source" toml:"add_source"`
}

// StoreConfig locates a key-value backend. Which fields matter depends on
// Driver.
type StoreConfig struct {
	Driver     string `mapstructure:"driver" toml:"driver"`
	DSN        string `mapstructure:"dsn" toml:"dsn"`
	Dir        string `mapstructure:"dir" toml:"dir"`
	Bucket     string `mapstructure:"bucket" toml:"bucket"`
	Region     string `mapstructure:"region" toml:"region"`
	Endpoint   string `mapstructure:"endpoint" toml:"endpoint"`
	AccessKey  string `mapstructure:"access_key" toml:"access_key"`
	SecretKey  string `mapstructure:"secret_key" toml:"secret_key"`
	Prefix     string `mapstructure:"prefix" toml:"prefix"`
	CacheSize  int    `mapstructure:"cache_size" toml:"cache_size"`
	Database   string `mapstructure:"database" toml:"database"`
	Collection string `mapstructure:"collection" toml:"collection"`
}

// EconomyConfig sets the baseline tunables. Lua scripts in ScriptsDir
// layer over these.
type EconomyConfig struct {
	ScriptsDir         string `mapstructure:"scripts_dir" toml:"scripts_dir"`
	SignupBonus        int64  `mapstructure:"signup_bonus" toml:"signup_bonus"`
	MaxAmount          int64  `mapstructure:"max_amount" toml:"max_amount"`
	TransactionCap     int    `mapstructure:"transaction_cap" toml:"transaction_cap"`
	ExchangeHistoryCap int    `mapstructure:"exchange_history_cap" toml:"exchange_history_cap"`
	PurchaseHistoryCap int    `mapstructure:"purchase_history_cap" toml:"purchase_history_cap"`
}

// TasksConfig sets the background task cadence.
type TasksConfig struct {
	FlushInterval      time.Duration `mapstructure:"flush_interval"`
	DailyCheckInterval time.Duration `mapstructure:"daily_check_interval"`
}

// HTTPConfig configures the API server. An empty AdminToken disables the
// admin routes.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" toml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken      string        `mapstructure:"admin_token" toml:"admin_token"`
}

// PlayConfig configures the interactive console.
type PlayConfig struct {
	Player string `mapstructure:"player" toml:"player"`
	Plain  bool   `mapstructure:"plain" toml:"plain"`
	Admin  bool   `mapstructure:"admin" toml:"admin"`
}

// Drivers accepted by StoreConfig.Driver.
var Drivers = []string{"memory", "file", "postgres", "mysql", "mongo", "s3"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	eco := state.DefaultDefs().Economy
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Driver:     "file",
			Dir:        "data",
			CacheSize:  256,
			Database:   "econcore",
			Collection: "kv",
		},
		Economy: EconomyConfig{
			SignupBonus:        eco.SignupBonus,
			MaxAmount:          eco.MaxAmount,
			TransactionCap:     eco.TransactionCap,
			ExchangeHistoryCap: eco.ExchangeHistoryCap,
			PurchaseHistoryCap: eco.PurchaseHistoryCap,
		},
		Tasks: TasksConfig{
			FlushInterval:      time.Minute,
			DailyCheckInterval: time.Hour,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Play: PlayConfig{
			Player: "player",
		},
	}
}

// Load reads path (when non-empty) and ECON_* environment variables over
// DefaultConfig. ECON_STORE_DSN overrides store.dsn.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	// AutomaticEnv only applies to keys viper already knows about.
	for key, val := range defaultKeys(cfg) {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func defaultKeys(c *Config) map[string]any {
	keys := map[string]any{
		"log.level":                    c.Log.Level,
		"log.format":                   c.Log.Format,
		"log.add_source":               c.Log.AddSource,
		"economy.scripts_dir":          c.Economy.ScriptsDir,
		"economy.signup_bonus":         c.Economy.SignupBonus,
		"economy.max_amount":           c.Economy.MaxAmount,
		"economy.transaction_cap":      c.Economy.TransactionCap,
		"economy.exchange_history_cap": c.Economy.ExchangeHistoryCap,
		"economy.purchase_history_cap": c.Economy.PurchaseHistoryCap,
		"tasks.flush_interval":         c.Tasks.FlushInterval,
		"tasks.daily_check_interval":   c.Tasks.DailyCheckInterval,
		"http.addr":                    c.HTTP.Addr,
		"http.read_timeout":            c.HTTP.ReadTimeout,
		"http.write_timeout":           c.HTTP.WriteTimeout,
		"http.shutdown_timeout":        c.HTTP.ShutdownTimeout,
		"http.admin_token":             c.HTTP.AdminToken,
		"play.player":                  c.Play.Player,
		"play.plain":                   c.Play.Plain,
		"play.admin":                   c.Play.Admin,
	}
	for section, s := range map[string]StoreConfig{"store": c.Store, "backup": c.Backup} {
		keys[section+".driver"] = s.Driver
		keys[section+".dsn"] = s.DSN
		keys[section+".dir"] = s.Dir
		keys[section+".bucket"] = s.Bucket
		keys[section+".region"] = s.Region
		keys[section+".endpoint"] = s.Endpoint
		keys[section+".access_key"] = s.AccessKey
		keys[section+".secret_key"] = s.SecretKey
		keys[section+".prefix"] = s.Prefix
		keys[section+".cache_size"] = s.CacheSize
		keys[section+".database"] = s.Database
		keys[section+".collection"] = s.Collection
	}
	return keys
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json, text or console (got %q)", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error (got %q)", c.Log.Level))
	}

	errs = append(errs, c.Store.validate("store", false)...)
	errs = append(errs, c.Backup.validate("backup", true)...)

	e := c.Economy
	if e.MaxAmount <= 0 {
		errs = append(errs, "economy.max_amount must be positive")
	}
	if e.SignupBonus < 0 || e.SignupBonus > e.MaxAmount {
		errs = append(errs, "economy.signup_bonus must be between 0 and economy.max_amount")
	}
	if e.TransactionCap <= 0 {
		errs = append(errs, "economy.transaction_cap must be positive")
	}
	if e.ExchangeHistoryCap <= 0 {
		errs = append(errs, "economy.exchange_history_cap must be positive")
	}
	if e.PurchaseHistoryCap <= 0 {
		errs = append(errs, "economy.purchase_history_cap must be positive")
	}

	if c.Tasks.FlushInterval <= 0 {
		errs = append(errs, "tasks.flush_interval must be positive")
	}
	if c.Tasks.DailyCheckInterval <= 0 {
		errs = append(errs, "tasks.daily_check_interval must be positive")
	}

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, "http.shutdown_timeout must be positive")
	}

	if strings.TrimSpace(c.Play.Player) == "" {
		errs = append(errs, "play.player is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s StoreConfig) validate(section string, optional bool) []string {
	var errs []string
	if s.Driver == "" && optional {
		return nil
	}
	switch s.Driver {
	case "memory":
	case "file":
		if s.Dir == "" {
			errs = append(errs, section+".dir is required for the file driver")
		}
	case "postgres", "mysql":
		if s.DSN == "" {
			errs = append(errs, fmt.Sprintf("%s.dsn is required for the %s driver", section, s.Driver))
		}
	case "mongo":
		if s.DSN == "" {
			errs = append(errs, section+".dsn is required for the mongo driver")
		}
		if s.Database == "" || s.Collection == "" {
			errs = append(errs, section+".database and "+section+".collection are required for the mongo driver")
		}
	case "s3":
		if s.Bucket == "" {
			errs = append(errs, section+".bucket is required for the s3 driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("%s.driver must be one of %s (got %q)", section, strings.Join(Drivers, ", "), s.Driver))
	}
	if s.CacheSize < 0 {
		errs = append(errs, section+".cache_size must not be negative")
	}
	return errs
}

// ApplyEconomy copies the economy tunables onto defs.
func (c *Config) ApplyEconomy(defs *state.Defs) {
	e := c.Economy
	defs.Economy.SignupBonus = e.SignupBonus
	defs.Economy.MaxAmount = e.MaxAmount
	defs.Economy.TransactionCap = e.TransactionCap
	defs.Economy.ExchangeHistoryCap = e.ExchangeHistoryCap
	defs.Economy.PurchaseHistoryCap = e.PurchaseHistoryCap
}

// fileTasks and fileHTTP render durations as strings ("1m0s") in the
// written file; viper parses them back with its duration hook.
type fileTasks struct {
	FlushInterval      string `toml:"flush_interval"`
	DailyCheckInterval string `toml:"daily_check_interval"`
}

type fileHTTP struct {
	Addr            string `toml:"addr"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	AdminToken      string `toml:"admin_token"`
}

type file struct {
	Log     LogConfig     `toml:"log"`
	Store   StoreConfig   `toml:"store"`
	Backup  StoreConfig   `toml:"backup"`
	Economy EconomyConfig `toml:"economy"`
	Tasks   fileTasks     `toml:"tasks"`
	HTTP    fileHTTP      `toml:"http"`
	Play    PlayConfig    `toml:"play"`
}

// WriteDefault writes DefaultConfig to w as TOML.
func WriteDefault(w io.Writer) error {
	return Write(w, DefaultConfig())
}

// Write encodes c to w as TOML.
func Write(w io.Writer, c *Config) error {
	f := file{
		Log:     c.Log,
		Store:   c.Store,
		Backup:  c.Backup,
		Economy: c.Economy,
		Tasks: fileTasks{
			FlushInterval:      c.Tasks.FlushInterval.String(),
			DailyCheckInterval: c.Tasks.DailyCheckInterval.String(),
		},
		HTTP: fileHTTP{
			Addr:            c.HTTP.Addr,
			ReadTimeout:     c.HTTP.ReadTimeout.String(),
			WriteTimeout:    c.HTTP.WriteTimeout.String(),
			ShutdownTimeout: c.HTTP.ShutdownTimeout.String(),
			AdminToken:      c.HTTP.AdminToken,
		},
		Play: c.Play,
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
