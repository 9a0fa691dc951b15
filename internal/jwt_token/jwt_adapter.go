package jwttoken

import (
	"assetd/internal/platform/middleware"
)

// JWTServiceAdapter exposes JWTService as the middleware's CallerValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.CallerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.CallerClaims{
		Subject: claims.Subject,
		JTI:     claims.ID,
	}, nil
}
