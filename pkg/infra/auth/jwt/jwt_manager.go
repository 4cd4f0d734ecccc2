package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/studiumlabs/voicebridge/pkg/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

//go:generate mockery --name=Manager --dir=. --output=mocks/ --filename=jwt_manager_mock.go --case=underscore --with-expecter
type (
	Manager interface {
		CreateToken(userID string) (string, error)
		ValidateToken(tokenString string) error
		DecodeToken(tokenString string) (*Claims, error)
	}
	manager struct {
		config config.AuthConfig
	}
)

func NewJwtManager(config config.AuthConfig) Manager {
	return &manager{
		config: config,
	}
}

type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id carried by the token, falling back to the
// registered subject when the user_id claim is absent.
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func (m *manager) CreateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.config.TokenExpiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TokenExpiry))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(m.config.JWTSecret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (m *manager) ValidateToken(tokenString string) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	h := hmac.New(sha256.New, []byte(m.config.JWTSecret))
	h.Write([]byte(signingInput))
	expectedSig := h.Sum(nil)

	providedSig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return ErrInvalidToken
	}

	if !hmac.Equal(expectedSig, providedSig) {
		return ErrInvalidToken
	}

	if exp, ok := m.extractExpiration(parts[1]); ok {
		if time.Now().After(exp) {
			return ErrExpiredToken
		}
	}

	return nil
}

func (m *manager) extractExpiration(payloadB64 string) (time.Time, bool) {
	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return time.Time{}, false
	}

	var payload struct {
		Exp *json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return time.Time{}, false
	}

	if payload.Exp == nil {
		return time.Time{}, false
	}

	expInt, err := payload.Exp.Int64()
	if err != nil {
		return time.Time{}, false
	}

	return time.Unix(expInt, 0), true
}

func (m *manager) DecodeToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(m.config.JWTSecret), nil
		},
		jwt.WithoutClaimsValidation(),
	)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
