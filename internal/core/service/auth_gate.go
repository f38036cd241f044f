package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

const authScheme = "Bearer"

// Gate resolves bearer tokens to users on every request.
type Gate struct {
	sessions *SessionStore
	users    ports.Repositories
}

func NewGate(sessions *SessionStore, users ports.Repositories) *Gate {
	return &Gate{sessions: sessions, users: users}
}

// Resolve accepts exactly "Bearer <token>". Any authentication failure is
// domain.ErrUnauthorized; cache or storage outages are returned wrapped.
func (g *Gate) Resolve(ctx context.Context, authorization string) (*domain.User, error) {
	parts := strings.Fields(authorization)
	if len(parts) != 2 || parts[0] != authScheme {
		return nil, domain.ErrUnauthorized
	}

	userID, err := g.sessions.Resolve(ctx, parts[1])
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth gate: %w", err)
	}

	user, err := g.users.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth gate: %w", err)
	}
	return user, nil
}
