package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/metrics"
)

// loadTestConfig loads defaults from an empty working directory.
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	c, err := config.Load()
	require.NoError(t, err)
	return c
}

func TestValidateAll(t *testing.T) {
	c := loadTestConfig(t)
	require.NoError(t, validateAll(c))

	c.Scoring.ComplaintDivisor = 0
	assert.ErrorContains(t, validateAll(c), "complaint_divisor")

	c = loadTestConfig(t)
	c.Engine.Workers = 0
	assert.Error(t, validateAll(c))
}

func TestBuildEngine_NoKeys(t *testing.T) {
	c := loadTestConfig(t)
	e, err := buildEngine(c, metrics.New())
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestBuildEngine_ClassificationTable(t *testing.T) {
	c := loadTestConfig(t)
	c.Anthropic.Key = "sk-test"
	c.Geocode.DetectLocation = true

	path := filepath.Join(t.TempDir(), "codes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - keyword: drone\n    code: \"8806\"\n"), 0o644))
	c.Classify.TablePath = path
	_, err := buildEngine(c, metrics.New())
	require.NoError(t, err)

	c.Classify.TablePath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = buildEngine(c, metrics.New())
	assert.ErrorContains(t, err, "load classification table")
}
