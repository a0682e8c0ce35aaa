package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottobar/internal/config"
	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/gateway"
	"github.com/hammamikhairi/ottobar/internal/logger"
	"github.com/hammamikhairi/ottobar/internal/recipe"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCommand()
	opts := &rootOptions{
		configPath: filepath.Join(dir, "ottobar.yaml"),
		envPath:    filepath.Join(dir, ".env"),
	}

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Dispense, cfg.Dispense)

	require.NoError(t, cmd.PersistentFlags().Set("config", opts.configPath))
	_, err = loadConfig(cmd, opts)
	assert.Error(t, err, "an explicitly named config file must exist")
}

func TestLoadConfigAppliesDotenv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("OTTOBAR_DB_PATH=:memory:\n"), 0o644))

	cfg, err := loadConfig(newRootCommand(), &rootOptions{
		configPath: filepath.Join(dir, "missing.yaml"),
		envPath:    env,
	})
	require.NoError(t, err)
	assert.Equal(t, config.MemoryDB, cfg.Storage.Path)
}

func TestCheckPayload(t *testing.T) {
	assert.NoError(t, checkPayload(gateway.ResourceMenu, []byte(`[{"name":"Negroni","amounts":[30,30,0,0]}]`)))
	assert.NoError(t, checkPayload(gateway.ResourceStock, []byte(`[{"name":"Gin","amount":700}]`)))
	assert.Error(t, checkPayload(gateway.ResourceStock, []byte(`{"name":"Gin"}`)))
	assert.Error(t, checkPayload(gateway.ResourceStats, []byte(`[]`)))
}

func TestWritePayload(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writePayload(&out, []byte(`[{"name":"Gin","amount":700}]`), false))
	assert.Equal(t, "[\n  {\n    \"name\": \"Gin\",\n    \"amount\": 700\n  }\n]\n", out.String())

	out.Reset()
	require.NoError(t, writePayload(&out, gateway.Filler(), false))
	assert.Equal(t, string(gateway.Filler())+"\n", out.String())
}

func TestPrintStats(t *testing.T) {
	catalog := recipe.DefaultCatalog(logger.Nop())
	s := domain.Stats{OrdersCompleted: 7, OrdersCancelled: 2, PresetOrders: 6, CustomOrders: 1}
	s.PresetCounts[0] = 2
	s.PresetCounts[2] = 4

	var out bytes.Buffer
	require.NoError(t, printStats(&out, s, catalog))
	text := out.String()
	assert.Contains(t, text, "completed  7")
	assert.Contains(t, text, "1.  "+catalog.At(2).Name)
	assert.Contains(t, text, "2.  "+catalog.At(0).Name)
	assert.NotContains(t, text, "3.")

	out.Reset()
	require.NoError(t, printStats(&out, domain.Stats{}, catalog))
	assert.True(t, strings.Contains(out.String(), "no preset orders yet"))
}
