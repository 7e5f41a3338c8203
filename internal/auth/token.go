package auth

import (
	"errors"
	"time"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// AuthToken mints and verifies HMAC-signed session tokens.
type AuthToken struct {
	key []byte
	ttl time.Duration
}

// NewAuthToken creates new AuthToken instance
func NewAuthToken(key []byte, ttl time.Duration) *AuthToken {
	return &AuthToken{key: key, ttl: ttl}
}

type claims struct {
	UserID uint64 `json:"uid"`
	Admin  bool   `json:"adm"`
	jwt.RegisteredClaims
}

// CreateToken returns a signed token for the user
func (a *AuthToken) CreateToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		Admin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})

	return token.SignedString(a.key)
}

// VerifyToken validates the token string and extracts its payload
func (a *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.key, nil
	})
	if err != nil {
		return nil, err
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return &models.TokenPayload{UserID: c.UserID, Admin: c.Admin}, nil
}
