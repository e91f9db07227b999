package ports

import (
	"context"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

// CreateEntryInput is the DTO passed from the transport layer to VaultService.
type CreateEntryInput struct {
	UserID   string
	Title    string
	Username string
	URL      string
	Notes    string
	Category string
	Payload  string
	Meta     RequestMeta
}

// UpdateEntryInput carries a partial update of one entry.
type UpdateEntryInput struct {
	UserID  string
	EntryID string
	Patch   domain.EntryPatch
	Meta    RequestMeta
}

// VaultService defines the per-user credential operations.
type VaultService interface {
	List(ctx context.Context, userID string) ([]*domain.CredentialEntry, error)
	Get(ctx context.Context, userID, entryID string) (*domain.CredentialEntry, error)
	Create(ctx context.Context, in CreateEntryInput) (*domain.CredentialEntry, error)
	Update(ctx context.Context, in UpdateEntryInput) (*domain.CredentialEntry, error)
	Delete(ctx context.Context, userID, entryID string, meta RequestMeta) (bool, error)
	Stats(ctx context.Context, userID string) (*domain.PasswordStats, error)
}

// ActivityService exposes the audit trail to its owner.
type ActivityService interface {
	List(ctx context.Context, userID string, limit int) ([]*domain.ActivityLogEntry, error)
}
