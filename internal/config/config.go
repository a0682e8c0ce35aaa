// Package config loads the appliance configuration from a YAML file and
// applies environment overrides, optionally read from a .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottobar/internal/dispense"
)

// Environment variables that override file values.
const (
	EnvMQTTBroker  = "OTTOBAR_MQTT_BROKER"
	EnvDBPath      = "OTTOBAR_DB_PATH"
	EnvLogLevel    = "OTTOBAR_LOG_LEVEL"
	EnvMetricsAddr = "OTTOBAR_METRICS_ADDR"
)

// MemoryDB as storage path keeps all records in memory.
const MemoryDB = ":memory:"

// Config is the complete appliance configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Inventory InventoryConfig `yaml:"inventory"`
	Order     OrderConfig     `yaml:"order"`
	Dispense  DispenseConfig  `yaml:"dispense"`
	Menu      MenuConfig      `yaml:"menu"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Rig       RigConfig       `yaml:"rig"`
	Audio     AudioConfig     `yaml:"audio"`
}

// LogConfig selects verbosity and destination.
type LogConfig struct {
	Level string `yaml:"level"` // off, normal, verbose
	File  string `yaml:"file"`  // "stderr" logs to the console
}

// StorageConfig locates the database.
type StorageConfig struct {
	Path        string        `yaml:"path"`
	LoadRetry   time.Duration `yaml:"load_retry"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// MQTTConfig configures the sync transport. An empty broker disables it.
type MQTTConfig struct {
	Broker           string        `yaml:"broker"`
	TopicPrefix      string        `yaml:"topic_prefix"`
	ClientID         string        `yaml:"client_id"`
	QoS              byte          `yaml:"qos"`
	ReadvertiseDelay time.Duration `yaml:"readvertise_delay"`
	InboxSize        int           `yaml:"inbox_size"`
}

// InventoryConfig tunes availability checks.
type InventoryConfig struct {
	SafetyMargin float64 `yaml:"safety_margin_ml"`
}

// OrderConfig tunes the custom and random drink editors.
type OrderConfig struct {
	AdjustStep  int `yaml:"adjust_step_ml"`
	PerDrinkCap int `yaml:"per_drink_cap_ml"`
	RandomMax   int `yaml:"random_max_ml"`
}

// DispenseConfig mirrors dispense.Config in file form.
type DispenseConfig struct {
	PresenceThreshold float64       `yaml:"presence_threshold_g"`
	PresenceSamples   int           `yaml:"presence_samples"`
	BaseSamples       int           `yaml:"base_samples"`
	LoopSamples       int           `yaml:"loop_samples"`
	StallLimit        int           `yaml:"stall_limit"`
	NoiseThreshold    float64       `yaml:"noise_threshold_g"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

// MenuConfig tunes input handling and the utility menu.
type MenuConfig struct {
	LongPressSamples int           `yaml:"long_press_samples"`
	CleanDuration    time.Duration `yaml:"clean_duration"`
}

// WatcherConfig tunes the low-stock watcher.
type WatcherConfig struct {
	Interval time.Duration `yaml:"interval"`
	LowStock float64       `yaml:"low_stock_ml"`
}

// MetricsConfig exposes Prometheus metrics. An empty address disables
// the endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// RigConfig tunes the simulated scale and pumps.
type RigConfig struct {
	FlowRate float64 `yaml:"flow_rate_ml_s"`
	Noise    float64 `yaml:"noise_g"`
}

// AudioConfig controls the alert chime.
type AudioConfig struct {
	Chime  bool    `yaml:"chime"`
	Volume float64 `yaml:"volume"`
}

// Default returns the configuration of the reference machine.
func Default() Config {
	d := dispense.DefaultConfig()
	return Config{
		Log: LogConfig{Level: "normal", File: ".ottobar/ottobar.log"},
		Storage: StorageConfig{
			Path:        ".ottobar/ottobar.db",
			LoadRetry:   2 * time.Second,
			SaveTimeout: 5 * time.Second,
		},
		MQTT: MQTTConfig{
			TopicPrefix:      "ottobar",
			QoS:              1,
			ReadvertiseDelay: 500 * time.Millisecond,
			InboxSize:        8,
		},
		Inventory: InventoryConfig{SafetyMargin: 10},
		Order:     OrderConfig{AdjustStep: 10, PerDrinkCap: 200, RandomMax: 200},
		Dispense: DispenseConfig{
			PresenceThreshold: d.PresenceThreshold,
			PresenceSamples:   d.PresenceSamples,
			BaseSamples:       d.BaseSamples,
			LoopSamples:       d.LoopSamples,
			StallLimit:        d.StallLimit,
			NoiseThreshold:    d.NoiseThreshold,
			PollInterval:      d.PollInterval,
		},
		Menu:    MenuConfig{LongPressSamples: 8, CleanDuration: 10 * time.Second},
		Watcher: WatcherConfig{Interval: 30 * time.Second, LowStock: 100},
		Rig:     RigConfig{FlowRate: 25},
		Audio:   AudioConfig{Chime: true, Volume: 0.4},
	}
}

// Load reads path over the defaults and validates the result. Keys
// missing from the file keep their default; unknown keys are an error.
// A missing file is reported with an error wrapping fs.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Variables are looked up
// in the process environment first, then in the dotenv file, which may
// be missing.
func (c *Config) ApplyEnv(dotenv string) error {
	vars := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			vars = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("reading %s: %w", dotenv, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	if v, ok := lookup(EnvMQTTBroker); ok {
		c.MQTT.Broker = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	return nil
}

// Controller converts the file form into the dispense tuning.
func (d DispenseConfig) Controller() dispense.Config {
	return dispense.Config{
		PresenceThreshold: d.PresenceThreshold,
		PresenceSamples:   d.PresenceSamples,
		BaseSamples:       d.BaseSamples,
		LoopSamples:       d.LoopSamples,
		StallLimit:        d.StallLimit,
		NoiseThreshold:    d.NoiseThreshold,
		PollInterval:      d.PollInterval,
	}
}
