package auth

import (
	"testing"
	"time"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthToken_RoundTrip(t *testing.T) {
	at := NewAuthToken([]byte("0123456789abcdef"), time.Hour)

	token, err := at.CreateToken(&models.User{ID: 7, Login: "admin", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payload, err := at.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), payload.UserID)
	assert.True(t, payload.Admin)
}

func TestAuthToken_RejectsWrongKey(t *testing.T) {
	mint := NewAuthToken([]byte("0123456789abcdef"), time.Hour)
	verify := NewAuthToken([]byte("fedcba9876543210"), time.Hour)

	token, err := mint.CreateToken(&models.User{ID: 7})
	require.NoError(t, err)

	_, err = verify.VerifyToken(token)
	require.Error(t, err)
}

func TestAuthToken_RejectsExpired(t *testing.T) {
	at := NewAuthToken([]byte("0123456789abcdef"), -time.Minute)

	token, err := at.CreateToken(&models.User{ID: 7})
	require.NoError(t, err)

	_, err = at.VerifyToken(token)
	require.Error(t, err)
}

func TestAuthToken_RejectsGarbage(t *testing.T) {
	at := NewAuthToken([]byte("0123456789abcdef"), time.Hour)

	_, err := at.VerifyToken("not.a.token")
	require.Error(t, err)
}
