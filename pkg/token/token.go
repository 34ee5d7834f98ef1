// Package token issues and verifies the HMAC-signed access and refresh JWTs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

var (
	ErrInvalid   = errors.New("token is invalid or expired")
	ErrWrongType = errors.New("token has wrong type")
)

// Claims is the payload carried by both token types.
type Claims struct {
	UserID    int64 `json:"user_id"`
	TokenType Type  `json:"token_type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = 5 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue signs a new token of the given type for userID.
func (m *Manager) Issue(userID int64, typ Type) (string, *Claims, error) {
	ttl := m.accessTTL
	if typ == Refresh {
		ttl = m.refreshTTL
	}

	now := m.now()
	claims := &Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature, expiry and type of raw.
func (m *Manager) Parse(raw string, expected Type) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}
