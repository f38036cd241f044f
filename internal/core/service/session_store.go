package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
	"github.com/platformkit/identity/internal/pkg/token"
)

const (
	sessionPrefix = "sessions"
	// SessionTTL is fixed at issue time and never renewed.
	SessionTTL = 24 * time.Hour
)

// SessionStore maps opaque bearer tokens to user ids.
type SessionStore struct {
	cache    ports.TokenCache
	generate func(int) (string, error)
}

func NewSessionStore(cache ports.TokenCache) *SessionStore {
	return &SessionStore{cache: cache, generate: token.Generate}
}

// Issue creates a session for userID and returns its token.
func (s *SessionStore) Issue(ctx context.Context, userID int64) (string, error) {
	tok, err := s.generate(token.Length)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetEX(ctx, sessionKey(tok), userID, SessionTTL); err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return tok, nil
}

// Resolve returns the user id bound to tok, or domain.ErrSessionNotFound.
func (s *SessionStore) Resolve(ctx context.Context, tok string) (int64, error) {
	if !token.HasValidLength(tok) {
		return 0, domain.ErrSessionNotFound
	}
	id, err := s.cache.Get(ctx, sessionKey(tok))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return 0, domain.ErrSessionNotFound
		}
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	return id, nil
}

func sessionKey(tok string) string {
	return sessionPrefix + "/" + tok
}
