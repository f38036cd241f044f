package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/platformkit/identity/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
// Events are append-only.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Kind      string             `bson:"kind"`
	UserID    int64              `bson:"user_id,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Outcome   string             `bson:"outcome"`
	ClientIP  string             `bson:"client_ip,omitempty"`
	Detail    string             `bson:"detail,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
}

func toDocument(e domain.AuthEvent) mongoAuthEvent {
	return mongoAuthEvent{
		Kind:      e.Kind,
		UserID:    e.UserID,
		Email:     e.Email,
		Outcome:   e.Outcome,
		ClientIP:  e.ClientIP,
		Detail:    e.Detail,
		Timestamp: e.Timestamp.UTC(),
	}
}

// EnsureIndexes creates the lookup indexes used by operators.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

func (r *AuditRepository) Record(ctx context.Context, e domain.AuthEvent) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(e)); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// RecentByUser returns the latest events of one user, newest first.
func (r *AuditRepository) RecentByUser(ctx context.Context, userID int64, limit int64) ([]domain.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find auth events: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.AuthEvent
	for cur.Next(ctx) {
		var doc mongoAuthEvent
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode auth event: %w", err)
		}
		out = append(out, domain.AuthEvent{
			Kind:      doc.Kind,
			UserID:    doc.UserID,
			Email:     doc.Email,
			Outcome:   doc.Outcome,
			ClientIP:  doc.ClientIP,
			Detail:    doc.Detail,
			Timestamp: doc.Timestamp,
		})
	}
	return out, cur.Err()
}
