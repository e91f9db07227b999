package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

const entriesCollection = "passwords"

// EntryRepository implements ports.VaultRepository. Mutations share a
// transaction with the activity insert they produce.
type EntryRepository struct {
	client   *mongo.Client
	col      *mongo.Collection
	activity *mongo.Collection
}

func NewEntryRepository(db *mongo.Database) *EntryRepository {
	return &EntryRepository{
		client:   db.Client(),
		col:      db.Collection(entriesCollection),
		activity: db.Collection(activityCollection),
	}
}

type mongoEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	Title         string             `bson:"title"`
	Username      string             `bson:"username,omitempty"`
	URL           string             `bson:"url,omitempty"`
	Notes         string             `bson:"notes,omitempty"`
	Category      string             `bson:"category,omitempty"`
	Payload       string             `bson:"encrypted_password"`
	PayloadDigest string             `bson:"payload_digest"`
	Strength      int                `bson:"strength"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// List returns the user's entries in insertion order (ObjectID order).
func (r *EntryRepository) List(ctx context.Context, userID string) ([]*domain.CredentialEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *EntryRepository) FindByDigest(ctx context.Context, userID, digest string) ([]*domain.CredentialEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"user_id": userID, "payload_digest": digest})
}

func (r *EntryRepository) FindByID(ctx context.Context, entryID, userID string) (*domain.CredentialEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc mongoEntry
	if err := r.col.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.CredentialEntry, audit ports.AuditFunc) (*domain.CredentialEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromDomainEntry(entry)
	doc.ID = primitive.NewObjectID()

	err := withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return r.appendActivity(sc, audit, doc.toDomain())
	})
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Update applies the patch with a single $set, so a new payload and its
// strength are never visible apart.
func (r *EntryRepository) Update(ctx context.Context, entryID, userID string, upd ports.EntryUpdate, audit ports.AuditFunc) (*domain.CredentialEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	set := bson.M{"updated_at": upd.UpdatedAt}
	p := upd.Patch
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.URL != nil {
		set["url"] = *p.URL
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Payload != nil {
		set["encrypted_password"] = *p.Payload
		set["strength"] = upd.Strength
		set["payload_digest"] = upd.Digest
	}

	var updated mongoEntry
	err = withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		res := r.col.FindOneAndUpdate(sc,
			bson.M{"_id": oid, "user_id": userID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)
		if err := res.Decode(&updated); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("update entry: %w", err)
		}
		return r.appendActivity(sc, audit, updated.toDomain())
	})
	if err != nil {
		return nil, err
	}
	return updated.toDomain(), nil
}

func (r *EntryRepository) Delete(ctx context.Context, entryID, userID string, audit ports.AuditFunc) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return false, nil
	}

	err = withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		var deleted mongoEntry
		if err := r.col.FindOneAndDelete(sc, bson.M{"_id": oid, "user_id": userID}).Decode(&deleted); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("delete entry: %w", err)
		}
		return r.appendActivity(sc, audit, deleted.toDomain())
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnsureIndexes creates necessary indexes on the passwords collection.
func (r *EntryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "payload_digest", Value: 1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("passwords indexes: %w", err)
	}
	return nil
}

func (r *EntryRepository) find(ctx context.Context, filter bson.M) ([]*domain.CredentialEntry, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	out := make([]*domain.CredentialEntry, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *EntryRepository) appendActivity(sc mongo.SessionContext, audit ports.AuditFunc, e *domain.CredentialEntry) error {
	if audit == nil {
		return nil
	}
	rec := audit(e)
	if rec == nil {
		return nil
	}
	if _, err := r.activity.InsertOne(sc, fromDomainActivity(rec)); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func fromDomainEntry(e *domain.CredentialEntry) mongoEntry {
	return mongoEntry{
		UserID:        e.UserID,
		Title:         e.Title,
		Username:      e.Username,
		URL:           e.URL,
		Notes:         e.Notes,
		Category:      e.Category,
		Payload:       e.Payload,
		PayloadDigest: e.PayloadDigest,
		Strength:      e.Strength,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (d mongoEntry) toDomain() *domain.CredentialEntry {
	return &domain.CredentialEntry{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Title:         d.Title,
		Username:      d.Username,
		URL:           d.URL,
		Notes:         d.Notes,
		Category:      d.Category,
		Payload:       d.Payload,
		PayloadDigest: d.PayloadDigest,
		Strength:      d.Strength,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}
