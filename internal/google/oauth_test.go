package google

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFilePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache-test")

	file := tokenFile()
	assert.Equal(t, filepath.Join("/tmp/cache-test", "inboxtriage", "google.token"), file)
}

func TestHasTokenMissing(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	assert.False(t, HasToken())
}

func TestGetOAuthConfigRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := getOAuthConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestGetOAuthConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	conf, err := getOAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "id", conf.ClientID)
	require.Len(t, conf.Scopes, 1)
	assert.True(t, strings.HasSuffix(conf.Scopes[0], "gmail.modify"))
}

func TestGetAuthURL(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	url, err := GetAuthURL()
	require.NoError(t, err)
	assert.Contains(t, url, "client_id=id")
	assert.Contains(t, url, "access_type=offline")
}

func TestGetTokenSourceMissingToken(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	_, err := GetTokenSource(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid Google OAuth token")
}
