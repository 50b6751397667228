package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Roles carried in the token. Token issuance belongs to the auth service;
// this backend only validates and extracts the caller identity.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Claims represents the JWT claims identifying a caller
type Claims struct {
	CustomerID int64  `json:"customer_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token validation (and generation, used by tests and
// operational tooling).
type JWTManager struct {
	secretKey []byte
	logger    *zap.Logger
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, logger *zap.Logger) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

// GenerateToken generates a signed token for the given caller identity
func (j *JWTManager) GenerateToken(customerID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "florista-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateToken validates a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		j.logger.Warn("invalid token", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
