package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"cryptocasino-backend/internal/config"
)

// JWTService signs and validates session tokens. The token is only half
// of authentication: its session id must still resolve to a live session
// record in the store.
type JWTService struct {
	secret []byte
}

type SessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{secret: []byte(cfg.SessionSecret)}
}

func (s *JWTService) GenerateToken(email, sessionID string) (string, error) {
	claims := SessionClaims{
		Email:     email,
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Email == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("incomplete token claims")
	}
	return claims, nil
}
