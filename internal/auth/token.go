package auth

import (
	"fmt"
	"time"

	apperrors "tenancy-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents the claims of an identity-provider token
type AuthClaims struct {
	Email     string `json:"email" example:"ada@example.com"`
	FirstName string `json:"first_name,omitempty" example:"Ada"`
	LastName  string `json:"last_name,omitempty" example:"Lovelace"`
	// Subject carries the user id
	jwt.RegisteredClaims `swaggerignore:"true"`
}

// UserID parses the subject as the user's UUID
func (c *AuthClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenValidator verifies HS256 tokens issued by the identity provider
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a validator. An empty issuer disables the issuer check.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

// ValidateJWT validates and parses a JWT token
func (v *TokenValidator) ValidateJWT(tokenString string) (*AuthClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", apperrors.ErrInvalidToken)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", apperrors.ErrInvalidToken)
	}

	return claims, nil
}

// GenerateJWT signs a token for userID. Used by tests and local tooling; production tokens
// come from the identity provider.
func (v *TokenValidator) GenerateJWT(userID uuid.UUID, email, firstName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AuthClaims{
		Email:     email,
		FirstName: firstName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    v.issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
