package ports

import (
	"context"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

// AlertService derives security alerts from vault state and resolves them.
type AlertService interface {
	EvaluateEntry(ctx context.Context, entry *domain.CredentialEntry) error
	ForgetEntry(ctx context.Context, userID, entryID string) error
	ScanVault(ctx context.Context, userID string) error
	List(ctx context.Context, userID string, includeResolved bool) ([]*domain.SecurityAlert, error)
	Resolve(ctx context.Context, userID, alertID string) (bool, error)
	CountUnresolved(ctx context.Context, userID string) (int64, error)
}
