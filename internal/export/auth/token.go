// Package auth validates bearer tokens and guards HTTP routes with the
// role permissions of the calling user.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTTL = 24 * time.Hour
	issuer   = "auth-service"
)

// Claims are the identity carried by a bearer token.
type Claims struct {
	UserID uuid.UUID
	RoleID uuid.UUID
}

func GenerateToken(userID, roleID uuid.UUID, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": roleID.String(),
		"exp":  now.Add(tokenTTL).Unix(),
		"iat":  now.Unix(),
		"iss":  issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := mc.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	claims := &Claims{UserID: userID}
	if role, ok := mc["role"].(string); ok && role != "" {
		if claims.RoleID, err = uuid.Parse(role); err != nil {
			return nil, fmt.Errorf("invalid role claim: %w", err)
		}
	}
	return claims, nil
}
