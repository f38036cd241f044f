package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// auditTrail records flow outcomes. Write failures are logged only.
type auditTrail struct {
	repo ports.AuditRepository
	log  zerolog.Logger
	now  func() time.Time
}

func (a auditTrail) record(ctx context.Context, e domain.AuthEvent) {
	if a.repo == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = a.now().UTC()
	}
	if err := a.repo.Record(ctx, e); err != nil {
		a.log.Warn().Err(err).Str("kind", e.Kind).Msg("audit record failed")
	}
}

func (a auditTrail) outcome(ctx context.Context, kind string, userID int64, email, clientIP string, err error) {
	e := domain.AuthEvent{Kind: kind, UserID: userID, Email: email, ClientIP: clientIP, Outcome: outcomeSuccess}
	if err != nil {
		e.Outcome = outcomeFailure
		e.Detail = failureDetail(err)
	}
	a.record(ctx, e)
}

// failureDetail keeps client-facing codes and hides internal messages.
func failureDetail(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
