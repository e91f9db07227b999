package ports

import (
	"context"
	"time"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

// AuditFunc builds the activity record for a mutation from the entry as it
// stands after the write (or, for deletes, as it stood before).
type AuditFunc func(entry *domain.CredentialEntry) *domain.ActivityLogEntry

// EntryUpdate is a patch plus the values derived from it. Strength and Digest
// are written only together with Patch.Payload.
type EntryUpdate struct {
	Patch     domain.EntryPatch
	Strength  int
	Digest    string
	UpdatedAt time.Time
}

// VaultRepository persists credential entries. Every method is scoped to
// userID; an entry owned by someone else is reported as domain.ErrNotFound.
// Create, Update and Delete write the entry and its audit record in one
// transaction.
type VaultRepository interface {
	List(ctx context.Context, userID string) ([]*domain.CredentialEntry, error)
	FindByID(ctx context.Context, entryID, userID string) (*domain.CredentialEntry, error)
	// FindByDigest returns the user's entries whose payload digest equals digest.
	FindByDigest(ctx context.Context, userID, digest string) ([]*domain.CredentialEntry, error)
	Create(ctx context.Context, entry *domain.CredentialEntry, audit AuditFunc) (*domain.CredentialEntry, error)
	Update(ctx context.Context, entryID, userID string, upd EntryUpdate, audit AuditFunc) (*domain.CredentialEntry, error)
	Delete(ctx context.Context, entryID, userID string, audit AuditFunc) (bool, error)
}

// ActivityRepository is the append-only audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityLogEntry) error
	// ListRecent returns at most limit records, most recent first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*domain.ActivityLogEntry, error)
}

// AlertRepository stores security alerts. An open alert is identified by
// (user, kind, subject).
type AlertRepository interface {
	// Raise refreshes the open alert for (user, kind, subject) with the
	// payload-derived fields of alert. Without an open alert it inserts one,
	// unless the user already resolved an alert with the same fingerprint.
	// It reports whether a new alert was inserted.
	Raise(ctx context.Context, alert *domain.SecurityAlert) (bool, error)
	// Retire auto-resolves the open alert for (user, kind, subject) once its
	// condition no longer holds.
	Retire(ctx context.Context, userID string, kind domain.AlertKind, subject string, at time.Time) (bool, error)
	List(ctx context.Context, userID string, unresolvedOnly bool) ([]*domain.SecurityAlert, error)
	// Resolve flips resolved to true. It reports false when the alert is
	// missing, foreign or already resolved.
	Resolve(ctx context.Context, alertID, userID string, at time.Time) (bool, error)
	CountUnresolved(ctx context.Context, userID string) (int64, error)
}
