package session

import (
	"chachat/backend/internal/models"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "chachat-service"

var ErrInvalidToken = errors.New("invalid resume token")

// claims carries the session id in the "sid" claim.
type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the resume tokens handed out with sessionCreated.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue генерує підписаний HS256 токен для сесії.
func (m *TokenManager) Issue(id models.SessionID) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign resume token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry and returns the session id the token was issued for.
func (m *TokenManager) Verify(raw string) (models.SessionID, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.SessionID{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := models.ParseSessionID(c.SessionID)
	if err != nil {
		return models.SessionID{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return id, nil
}
