package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PROJECT_ID", "sieve-test")
	t.Setenv("DATA_LAKE_BUCKET", "data-lake")
	t.Setenv("CURATED_BUCKET", "curated")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("COLLABORATOR_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sieve-test", cfg.ProjectID)
	assert.Equal(t, "data-lake", cfg.QuarantineBucket) // defaults to data lake
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
	assert.Equal(t, 45*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, "quarantine/", cfg.QuarantinePrefix)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("DATA_LAKE_BUCKET", "data-lake")
	t.Setenv("CURATED_BUCKET", "curated")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigInvalidSize(t *testing.T) {
	t.Setenv("PROJECT_ID", "sieve-test")
	t.Setenv("DATA_LAKE_BUCKET", "data-lake")
	t.Setenv("CURATED_BUCKET", "curated")
	t.Setenv("MAX_FILE_SIZE", "diez")

	_, err := LoadConfig()
	require.Error(t, err)
}
