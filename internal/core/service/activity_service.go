package service

import (
	"context"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

const (
	DefaultActivityLimit = 20
	DefaultActivityMax   = 100
)

type ActivityService struct {
	repo     ports.ActivityRepository
	maxLimit int
}

func NewActivityService(repo ports.ActivityRepository, maxLimit int) *ActivityService {
	if maxLimit <= 0 {
		maxLimit = DefaultActivityMax
	}
	return &ActivityService{repo: repo, maxLimit: maxLimit}
}

// List returns the user's most recent activity first. A non-positive limit
// means the default; larger limits are capped.
func (s *ActivityService) List(ctx context.Context, userID string, limit int) ([]*domain.ActivityLogEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.repo.ListRecent(ctx, userID, limit)
}
