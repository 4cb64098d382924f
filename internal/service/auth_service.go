package service

import (
	"errors"

	"github.com/spec-kit/repeat-complaints/internal/auth"
	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// ErrInvalidCredentials is returned for unknown clients or wrong secrets.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService exchanges client credentials for access tokens.
type AuthService struct {
	clients  map[string]config.ClientCredential
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		clients:  cfg.Clients,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// IssueToken authenticates a client and returns a role-bearing token.
func (s *AuthService) IssueToken(clientID, secret string) (domain.Token, error) {
	cred, ok := s.clients[clientID]
	if !ok {
		return domain.Token{}, ErrInvalidCredentials
	}
	if err := auth.CompareSecret(cred.SecretHash, secret); err != nil {
		return domain.Token{}, ErrInvalidCredentials
	}
	role := domain.ClientRole(cred.Role)
	if !auth.ValidRole(role) {
		return domain.Token{}, ErrInvalidCredentials
	}
	return s.tokenMgr.GenerateToken(clientID, role)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
