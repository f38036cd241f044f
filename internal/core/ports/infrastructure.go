package ports

import (
	"context"
	"time"
)

// TokenCache is the key-value port behind sessions and one-time tokens.
// Values are user ids. Misses return domain.ErrTokenNotFound.
type TokenCache interface {
	SetEX(ctx context.Context, key string, userID int64, ttl time.Duration) error
	Get(ctx context.Context, key string) (int64, error)
	// GetDel reads and deletes atomically.
	GetDel(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, candidate string) error
}

// MailKind selects the mail template.
type MailKind string

const (
	MailConfirmation  MailKind = "confirmation"
	MailPasswordReset MailKind = "password_reset"
)

// MailMessage is one outbound notification.
type MailMessage struct {
	Kind       MailKind  `json:"kind"`
	To         string    `json:"to"`
	Username   string    `json:"username"`
	Link       string    `json:"link"`
	ClientInfo string    `json:"client_info"`
	QueuedAt   time.Time `json:"queued_at"`
}

// MailSender delivers a message to the mail broker.
type MailSender interface {
	Send(ctx context.Context, m MailMessage) error
}

// MailQueue accepts messages for asynchronous delivery.
type MailQueue interface {
	Enqueue(m MailMessage)
}

// GeoLocator describes where a request came from. It never fails;
// lookups that cannot complete degrade to a plain description.
type GeoLocator interface {
	Describe(ctx context.Context, ip string) string
}
