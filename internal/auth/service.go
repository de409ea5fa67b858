package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/abduss/storeit/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the token payload issued by the identity provider.
type accessClaims struct {
	Email     string `json:"email"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// UserClaims describes the validated identity extracted from an access token.
type UserClaims struct {
	Requester Requester
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Service verifies bearer tokens minted by the external identity provider.
type Service struct {
	cfg     config.AuthConfig
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// NewService creates a Service for the configured signing secret.
func NewService(cfg config.AuthConfig) *Service {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	s := &Service{cfg: cfg, nowFunc: time.Now}
	s.parser = jwt.NewParser(append(opts, jwt.WithTimeFunc(func() time.Time { return s.nowFunc() }))...)
	return s
}

// ValidateAccessToken verifies the token signature and extracts the requester.
func (s *Service) ValidateAccessToken(tokenString string) (UserClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return UserClaims{}, ErrUnauthorized
	}

	var claims accessClaims
	parsed, err := s.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return UserClaims{}, ErrUnauthorized
	}

	requester := Requester{
		ID:        strings.TrimSpace(claims.Subject),
		Email:     strings.ToLower(strings.TrimSpace(claims.Email)),
		AccountID: claims.AccountID,
	}
	if requester.IsZero() {
		return UserClaims{}, ErrUnauthorized
	}

	out := UserClaims{Requester: requester}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
