package models

import "github.com/golang-jwt/jwt/v4"

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
// Identity issuance happens upstream; this service only consumes the claims.
type JwtCustomClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}
