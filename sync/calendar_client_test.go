package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewCalendarClient(t *testing.T) {
	token := &oauth2.Token{
		AccessToken:  "test-access-token",
		TokenType:    "Bearer",
		RefreshToken: "test-refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}

	client, err := NewCalendarClient(context.Background(), NewOAuthConfig(), token)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewCalendarClientNilToken(t *testing.T) {
	client, err := NewCalendarClient(context.Background(), NewOAuthConfig(), nil)
	assert.Error(t, err)
	assert.Nil(t, client)
}
