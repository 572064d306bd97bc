package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/testutil"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, disk.DefaultCapacities(), cfg.Storage.Capacities())
	assert.Equal(t, 4, cfg.Storage.BayCount)
	assert.Equal(t, 7, cfg.Reader.Rows)
	assert.Equal(t, 10, cfg.Reader.Cols)
	assert.Equal(t, "file", cfg.State.Backend)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Contains(t, cfg.Categories, "Weapons")
	assert.Equal(t, []string{"Armor", "Clothing"}, cfg.SessionCategories()["Armor"])
	require.NoError(t, cfg.Validate())

	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, ".diskmesh", "state"), cfg.State.Path)
	}
}

func TestLoad(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	content := `
log_level: debug
storage:
  capacity_t0: 10
  capacity_t2: 500
  bay_count: 2
reader:
  cols: 5
categories:
  Building: [Resources, Tools]
state:
  backend: badger
  path: /tmp/dm
`
	configPath := testutil.TempFile(t, dir, "diskmesh.yaml", content)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, disk.Capacities{T0: 10, T1: 180, T2: 500}, cfg.Storage.Capacities())
	assert.Equal(t, 2, cfg.Storage.BayCount)
	assert.Equal(t, 7, cfg.Reader.Rows)
	assert.Equal(t, 5, cfg.Reader.Cols)
	assert.Equal(t, map[string][]string{"Building": {"Resources", "Tools"}}, cfg.Categories)
	assert.Equal(t, "badger", cfg.State.Backend)
	assert.Equal(t, "/tmp/dm", cfg.State.Path)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative capacity", "storage:\n  capacity_t1: -5\n"},
		{"negative bays", "storage:\n  bay_count: -1\n"},
		{"negative rows", "reader:\n  rows: -1\n"},
		{"unknown backend", "state:\n  backend: etcd\n"},
		{"bad level", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, cleanup := testutil.TempDir(t)
			defer cleanup()
			path := testutil.TempFile(t, dir, "diskmesh.yaml", tt.content)

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("/nonexistent/diskmesh.yaml")
	assert.Error(t, err)

	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	path := testutil.TempFile(t, dir, "bad.yaml", "storage: [unclosed")
	_, err = Load(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}
