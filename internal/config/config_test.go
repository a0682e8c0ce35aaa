package config

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottobar/internal/dispense"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dispense.DefaultConfig(), cfg.Dispense.Controller())
}

func TestExampleMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "ottobar.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "ottobar.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "verbose", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.File)
	assert.Equal(t, "/var/lib/ottobar/bar.db", cfg.Storage.Path)
	assert.Equal(t, "bar.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lobby-bar", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 750*time.Millisecond, cfg.MQTT.ReadvertiseDelay)
	assert.Equal(t, 15.0, cfg.Inventory.SafetyMargin)
	assert.Equal(t, 60, cfg.Dispense.StallLimit)
	assert.Equal(t, 50*time.Millisecond, cfg.Dispense.PollInterval)
	assert.Equal(t, 20*time.Second, cfg.Menu.CleanDuration)

	// Untouched keys keep their defaults.
	def := Default()
	assert.Equal(t, def.Dispense.PresenceSamples, cfg.Dispense.PresenceSamples)
	assert.Equal(t, def.Order, cfg.Order)
	assert.Equal(t, def.MQTT.QoS, cfg.MQTT.QoS)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_key.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stall_limt")
}

func TestLoadReportsEveryInvalidField(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	for _, want := range []string{"order.adjust_step_ml", "dispense.loop_samples", "audio.volume"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Run("dotenv fills unset variables", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(filepath.Join("testdata", "override.env")))
		assert.Equal(t, "from-dotenv:1883", cfg.MQTT.Broker)
		assert.Equal(t, "/tmp/dotenv.db", cfg.Storage.Path)
	})

	t.Run("process environment wins", func(t *testing.T) {
		t.Setenv(EnvMQTTBroker, "from-env:1883")
		t.Setenv(EnvLogLevel, "off")
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(filepath.Join("testdata", "override.env")))
		assert.Equal(t, "from-env:1883", cfg.MQTT.Broker)
		assert.Equal(t, "off", cfg.Log.Level)
		assert.Equal(t, "/tmp/dotenv.db", cfg.Storage.Path)
	})

	t.Run("missing dotenv is fine", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(filepath.Join("testdata", "missing.env")))
		assert.Equal(t, Default().Storage, cfg.Storage)
	})
}
