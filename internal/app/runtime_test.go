package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/paisaid/paisaid-cms/testing"
)

func TestTestingPackageEnablesTestMode(t *testing.T) {
	assert.Equal(t, "1", os.Getenv(testModeEnv))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.NotEqual(t, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
}

func TestInTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
