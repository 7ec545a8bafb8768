package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfiguration(), cfg)
}

func TestLoadConfigurationKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("name: textbooks\nworkers: 4\noutputs:\n  triples_xlsx: kg_triples.xlsx\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "textbooks", cfg.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "kg_triples.xlsx", cfg.Outputs.TriplesXLSX)
	assert.Equal(t, DefaultTriplesCSV, cfg.Outputs.TriplesCSV)
	assert.Equal(t, DefaultGraphGML, cfg.Outputs.GraphGML)
	assert.Equal(t, path, cfg.FilePath)
}

func TestLoadConfigurationRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 0\n"), 0o644))

	_, err := LoadConfiguration(path)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestApplyConfigurationPatch(t *testing.T) {
	cfg := DefaultConfiguration()

	patched, err := ApplyConfigurationPatch(cfg, []byte(`{"workers": 8, "outputs": {"graph_png": null}}`))
	require.NoError(t, err)
	assert.Equal(t, 8, patched.Workers)
	assert.Empty(t, patched.Outputs.GraphPNG)
	assert.Equal(t, DefaultTriplesCSV, patched.Outputs.TriplesCSV)

	same, err := ApplyConfigurationPatch(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, same)

	_, err = ApplyConfigurationPatch(cfg, []byte(`{"workers": -1}`))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestHasInputExtension(t *testing.T) {
	cfg := DefaultConfiguration()
	assert.True(t, cfg.HasInputExtension("chapter1_clean.TXT"))
	assert.False(t, cfg.HasInputExtension("chapter1.pdf"))
}
