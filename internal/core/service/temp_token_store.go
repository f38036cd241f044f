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

// Purpose scopes a one-time token to a single flow.
type Purpose int

const (
	PurposeConfirm Purpose = iota + 1
	PurposeReset
)

const (
	ConfirmTokenTTL = 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

func (p Purpose) prefix() string {
	switch p {
	case PurposeConfirm:
		return "confirm_token"
	case PurposeReset:
		return "reset_token"
	}
	return "unknown_token"
}

func (p Purpose) ttl() time.Duration {
	if p == PurposeReset {
		return ResetTokenTTL
	}
	return ConfirmTokenTTL
}

func (p Purpose) key(tok string) string {
	return p.prefix() + "/" + tok
}

// TemporaryTokenStore issues and redeems single-use tokens.
type TemporaryTokenStore struct {
	cache    ports.TokenCache
	generate func(int) (string, error)
}

func NewTemporaryTokenStore(cache ports.TokenCache) *TemporaryTokenStore {
	return &TemporaryTokenStore{cache: cache, generate: token.Generate}
}

// Issue binds a fresh token to userID for the purpose's lifetime.
func (s *TemporaryTokenStore) Issue(ctx context.Context, userID int64, p Purpose) (string, error) {
	tok, err := s.generate(token.Length)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetEX(ctx, p.key(tok), userID, p.ttl()); err != nil {
		return "", fmt.Errorf("issue %s: %w", p.prefix(), err)
	}
	return tok, nil
}

// Lookup reads the token without consuming it.
func (s *TemporaryTokenStore) Lookup(ctx context.Context, tok string, p Purpose) (int64, error) {
	if !token.HasValidLength(tok) {
		return 0, domain.ErrInvalidToken
	}
	id, err := s.cache.Get(ctx, p.key(tok))
	return s.result(id, err, p)
}

// Redeem consumes the token atomically. A second redemption misses.
func (s *TemporaryTokenStore) Redeem(ctx context.Context, tok string, p Purpose) (int64, error) {
	if !token.HasValidLength(tok) {
		return 0, domain.ErrInvalidToken
	}
	id, err := s.cache.GetDel(ctx, p.key(tok))
	return s.result(id, err, p)
}

// Discard deletes the token. Deleting a missing token is not an error.
func (s *TemporaryTokenStore) Discard(ctx context.Context, tok string, p Purpose) error {
	if err := s.cache.Del(ctx, p.key(tok)); err != nil {
		return fmt.Errorf("discard %s: %w", p.prefix(), err)
	}
	return nil
}

func (s *TemporaryTokenStore) result(id int64, err error, p Purpose) (int64, error) {
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return 0, domain.ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup %s: %w", p.prefix(), err)
	}
	return id, nil
}
