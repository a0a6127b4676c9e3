package auth_test

import (
	"testing"

	"github.com/aegis-id/aegis/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	require.NoError(t, client.Livez(t.Context()))
	require.NoError(t, client.Readyz(t.Context()))
}
