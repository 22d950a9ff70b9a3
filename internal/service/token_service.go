package service

import (
	"errors"
	"fmt"
	"time"

	"bedrock-relay/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role claim required by the administrative credit endpoint.
const RoleAdmin = "admin"

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService issues and checks HS256 admin tokens.
type JWTTokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

func NewJWTTokenService(secret string, ttl time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		key:    []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Generate returns a signed token for subject and its expiry.
func (s *JWTTokenService) Generate(subject, role string) (string, time.Time, error) {
	issuedAt := time.Now()
	exp := issuedAt.Add(s.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing admin token: %w", err)
	}
	return signed, exp, nil
}

func (s *JWTTokenService) Validate(raw string) (*ports.TokenClaims, error) {
	var claims adminClaims
	if _, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}); err != nil {
		return nil, fmt.Errorf("admin token rejected: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("admin token has no subject")
	}
	return &ports.TokenClaims{Subject: claims.Subject, Role: claims.Role}, nil
}
