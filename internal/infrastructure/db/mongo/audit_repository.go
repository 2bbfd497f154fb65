package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

const collectionAuditLogs = "audit_logs"

// AuditRepository persists audit entries to the audit_logs collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditLogs)}
}

// Insert writes one entry. The entry id doubles as the document id so a
// retried write cannot create a second record.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	doc := bson.M{
		"_id":         e.ID,
		"actor_id":    e.ActorID,
		"action":      e.Action,
		"resource":    e.Resource,
		"resource_id": e.ResourceID,
		"method":      e.Method,
		"path":        e.Path,
		"status":      e.Status,
		"ip":          e.IP,
		"request_id":  e.RequestID,
		"at":          e.At.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// EnsureIndexes indexes entries by actor and time, and expires them after
// retention when retention is positive.
func (r *AuditRepository) EnsureIndexes(ctx context.Context, retention time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "at", Value: -1}}},
	}
	if retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		})
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
