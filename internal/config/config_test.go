package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.8, cfg.Split.TrainProportion)
	assert.Equal(t, 5, cfg.Impute.Neighbors)
	assert.Equal(t, "-", cfg.Evaluate.PositiveClass)
	assert.Equal(t, "?", cfg.Data.MissingMarker)
	assert.Equal(t, 16, cfg.Data.Columns)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "creditstudy.yaml")
	content := `
split:
  train_proportion: 0.7
  seed: 99
impute:
  neighbors: 3
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Split.TrainProportion)
	assert.Equal(t, int64(99), cfg.Split.Seed)
	assert.Equal(t, 3, cfg.Impute.Neighbors)
	// untouched sections keep defaults
	assert.Equal(t, "-", cfg.Evaluate.PositiveClass)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CREDITSTUDY_SPLIT_TRAIN_PROPORTION", "0.75")
	t.Setenv("CREDITSTUDY_EVALUATE_POSITIVE_CLASS", "+")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Split.TrainProportion)
	assert.Equal(t, "+", cfg.Evaluate.PositiveClass)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "train proportion at 1 is invalid",
			mutate:  func(c *Config) { c.Split.TrainProportion = 1.0 },
			wantErr: true,
		},
		{
			name:    "train proportion at 0 is invalid",
			mutate:  func(c *Config) { c.Split.TrainProportion = 0 },
			wantErr: true,
		},
		{
			name:    "zero neighbors is invalid",
			mutate:  func(c *Config) { c.Impute.Neighbors = 0 },
			wantErr: true,
		},
		{
			name:    "empty positive class is invalid",
			mutate:  func(c *Config) { c.Evaluate.PositiveClass = "" },
			wantErr: true,
		},
		{
			name:    "unknown log level is invalid",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "response column listed as numeric is invalid",
			mutate:  func(c *Config) { c.Data.NumericColumns = []string{"A16"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
