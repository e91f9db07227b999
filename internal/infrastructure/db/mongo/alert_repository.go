package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

const alertsCollection = "security_alerts"

// AlertRepository implements ports.AlertRepository.
type AlertRepository struct {
	col *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{col: db.Collection(alertsCollection)}
}

type mongoAlert struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Kind         string             `bson:"kind"`
	Severity     string             `bson:"severity"`
	Subject      string             `bson:"subject"`
	Fingerprint  string             `bson:"fingerprint"`
	EntryIDs     []string           `bson:"entry_ids,omitempty"`
	Message      string             `bson:"message"`
	Resolved     bool               `bson:"resolved"`
	AutoResolved bool               `bson:"auto_resolved,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	ResolvedAt   *time.Time         `bson:"resolved_at,omitempty"`
}

func openAlertFilter(userID string, kind domain.AlertKind, subject string) bson.M {
	return bson.M{"user_id": userID, "kind": string(kind), "subject": subject, "resolved": false}
}

// refreshFields are rewritten on every raise so an open alert tracks the
// current vault state.
func refreshFields(a *domain.SecurityAlert) bson.M {
	return bson.M{
		"severity":    string(a.Severity),
		"fingerprint": a.Fingerprint,
		"entry_ids":   a.EntryIDs,
		"message":     a.Message,
	}
}

func raiseUpdate(a *domain.SecurityAlert) bson.M {
	return bson.M{
		"$set":         refreshFields(a),
		"$setOnInsert": bson.M{"created_at": a.CreatedAt.UTC()},
	}
}

// Raise implements ports.AlertRepository. The partial unique index on open
// alerts makes concurrent raises of the same condition collapse into one.
func (r *AlertRepository) Raise(ctx context.Context, a *domain.SecurityAlert) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	open := openAlertFilter(a.UserID, a.Kind, a.Subject)

	res, err := r.col.UpdateOne(ctx, open, bson.M{"$set": refreshFields(a)})
	if err != nil {
		return false, fmt.Errorf("refresh alert: %w", err)
	}
	if res.MatchedCount > 0 {
		return false, nil
	}

	silenced, err := r.col.CountDocuments(ctx, bson.M{
		"user_id":       a.UserID,
		"kind":          string(a.Kind),
		"subject":       a.Subject,
		"fingerprint":   a.Fingerprint,
		"resolved":      true,
		"auto_resolved": bson.M{"$ne": true},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check resolved alert: %w", err)
	}
	if silenced > 0 {
		return false, nil
	}

	res, err = r.col.UpdateOne(ctx, open, raiseUpdate(a), options.Update().SetUpsert(true))
	if err != nil {
		// A concurrent upsert won the unique index race; the alert exists.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("raise alert: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *AlertRepository) Retire(ctx context.Context, userID string, kind domain.AlertKind, subject string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, openAlertFilter(userID, kind, subject),
		bson.M{"$set": bson.M{"resolved": true, "auto_resolved": true, "resolved_at": at.UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("retire alert: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *AlertRepository) List(ctx context.Context, userID string, unresolvedOnly bool) ([]*domain.SecurityAlert, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if unresolvedOnly {
		filter["resolved"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAlert
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}

	out := make([]*domain.SecurityAlert, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Resolve only matches unresolved alerts of the owner, so a second call
// reports false.
func (r *AlertRepository) Resolve(ctx context.Context, alertID, userID string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(alertID)
	if err != nil {
		return false, nil
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID, "resolved": false},
		bson.M{"$set": bson.M{"resolved": true, "resolved_at": at.UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("resolve alert: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *AlertRepository) CountUnresolved(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "resolved": false})
	if err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}

func (r *AlertRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "subject", Value: 1}},
			Options: options.Index().
				SetName("open_alert_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"resolved": false}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "resolved", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("alerts indexes: %w", err)
	}
	return nil
}

func (d mongoAlert) toDomain() *domain.SecurityAlert {
	return &domain.SecurityAlert{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Kind:         domain.AlertKind(d.Kind),
		Severity:     domain.Severity(d.Severity),
		Subject:      d.Subject,
		Fingerprint:  d.Fingerprint,
		EntryIDs:     d.EntryIDs,
		Message:      d.Message,
		Resolved:     d.Resolved,
		AutoResolved: d.AutoResolved,
		CreatedAt:    d.CreatedAt.UTC(),
		ResolvedAt:   d.ResolvedAt,
	}
}
