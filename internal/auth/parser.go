package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/internal/model"
)

// Parser validates access tokens issued by the identity gateway and
// extracts the calling principal. Token issuance itself lives outside
// this service.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Principal{}, fmt.Errorf("invalid token claims")
	}

	userID, err := claimUUID(claims, "user_id")
	if err != nil {
		return model.Principal{}, err
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return model.Principal{}, fmt.Errorf("missing role claim")
	}

	principal := model.Principal{UserID: userID, Role: role}
	if raw, ok := claims["engineer_id"].(string); ok && raw != "" {
		engineerID, err := uuid.Parse(raw)
		if err != nil {
			return model.Principal{}, fmt.Errorf("invalid engineer_id claim: %w", err)
		}
		principal.EngineerID = &engineerID
	}
	return principal, nil
}

func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s claim", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s claim: %w", key, err)
	}
	return id, nil
}
