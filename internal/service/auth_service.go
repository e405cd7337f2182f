package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-hub/internal/auth"
	"github.com/spec-kit/ticket-hub/internal/config"
	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/repository"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// AuthService authenticates agents and issues access tokens.
type AuthService struct {
	agents repository.AgentRepository
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, agents repository.AgentRepository) *AuthService {
	ttl := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	return &AuthService{
		agents: agents,
		tokens: auth.NewTokenManager(cfg.JWTSecret, ttl),
	}
}

// Login verifies an agent's access key and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, accessKey string) (string, *domain.Agent, error) {
	agent, err := s.agents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if !agent.IsActive || !auth.CompareAccessKey(agent.AccessKeyHash, accessKey) {
		return "", nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokens.Issue(agent)
	if err != nil {
		return "", nil, err
	}
	return token, agent, nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
