package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const TokenTypeAccess = "access"

var (
	ErrSecretMissing = errors.New("JWT secret not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims is the parsed content of an access token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager issues and validates HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs an access token for the user. The jti lets the token be
// revoked before it expires.
func (m *TokenManager) Issue(userID, email, role string) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
		"typ":   TokenTypeAccess,
		"jti":   claims.TokenID,
		"iat":   now.Unix(),
		"exp":   claims.ExpiresAt.Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates the signature, expiry and, when expectedType is set,
// the "typ" claim.
func (m *TokenManager) Parse(tokenStr, expectedType string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if expectedType != "" {
		if typ, ok := mc["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
		}
	}

	claims := &Claims{}
	claims.UserID, _ = mc["sub"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	claims.TokenID, _ = mc["jti"].(string)
	if exp, ok := mc["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
