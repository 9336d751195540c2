// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
)

// JWTClaims carries the actor issued by the identity provider.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var (
	jwtSecret = []byte("your-secret-key-change-in-production")
	jwtIssuer = "e-visa"
)

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func SetJWTIssuer(issuer string) {
	if issuer != "" {
		jwtIssuer = issuer
	}
}

func GenerateJWT(actor domain.Actor, ttlHours int) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: actor.ID.String(),
		Email:  actor.Email,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Subject:   actor.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Actor converts validated claims into the workflow actor.
func (c *JWTClaims) Actor() (*domain.Actor, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, errors.New("invalid user id in token")
	}
	role := domain.Role(c.Role)
	if !role.Valid() {
		return nil, errors.New("invalid role in token")
	}
	return &domain.Actor{ID: id, Email: c.Email, Role: role}, nil
}
