package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeights(t *testing.T) {
	got, err := parseWeights([]string{"novelty=0.5", "feasibility=0.25"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"novelty": 0.5, "feasibility": 0.25}, got)

	got, err = parseWeights(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseWeights([]string{"novelty"})
	assert.Error(t, err)

	_, err = parseWeights([]string{"novelty=high"})
	assert.Error(t, err)
}

func TestReadPaper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"p-1","title":"T","abstract":"A","doi":"10.1/x"}`), 0o600))

	p, err := readPaper(path)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "10.1/x", p.DOI)

	_, err = readPaper(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	_, err = readPaper(path)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"version"})
	assert.NoError(t, root.Execute())
}
