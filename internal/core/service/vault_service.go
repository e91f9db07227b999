package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

const (
	maxTitleLen   = 200
	maxPayloadLen = 10 << 10
	maxURLLen     = 2048
	maxNotesLen   = 10000
	maxShortField = 200
)

// AlertEvaluator keeps alerts in line with entry writes.
type AlertEvaluator interface {
	EvaluateEntry(ctx context.Context, entry *domain.CredentialEntry) error
	ForgetEntry(ctx context.Context, userID, entryID string) error
}

// VaultService implements the owner-scoped credential operations.
//
// Strength is scored on the payload exactly as the client supplies it. The
// service never decrypts payloads, so clients that encrypt before upload get a
// score of the ciphertext.
type VaultService struct {
	repo   ports.VaultRepository
	alerts AlertEvaluator
	log    zerolog.Logger
	now    func() time.Time
}

func NewVaultService(repo ports.VaultRepository, alerts AlertEvaluator, log zerolog.Logger) *VaultService {
	return &VaultService{repo: repo, alerts: alerts, log: log, now: time.Now}
}

func (s *VaultService) List(ctx context.Context, userID string) ([]*domain.CredentialEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.List(ctx, userID)
}

func (s *VaultService) Get(ctx context.Context, userID, entryID string) (*domain.CredentialEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if entryID == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, entryID, userID)
}

func (s *VaultService) Create(ctx context.Context, in ports.CreateEntryInput) (*domain.CredentialEntry, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if err := checkTitle(title); err != nil {
		return nil, err
	}
	if err := checkPayload(in.Payload); err != nil {
		return nil, err
	}
	if err := checkMetadata(&in.Username, &in.URL, &in.Notes, &in.Category); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &domain.CredentialEntry{
		UserID:        in.UserID,
		Title:         title,
		Username:      in.Username,
		URL:           in.URL,
		Notes:         in.Notes,
		Category:      in.Category,
		Payload:       in.Payload,
		PayloadDigest: payloadDigest(in.UserID, in.Payload),
		Strength:      strength.Score(in.Payload),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, entry, s.audit(domain.ActionCreatePassword, "Created password entry %q", in.Meta, now))
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.log.Info().Str("user_id", in.UserID).Str("entry_id", created.ID).Int("strength", created.Strength).Msg("entry created")
	s.evaluate(ctx, created)
	return created, nil
}

func (s *VaultService) Update(ctx context.Context, in ports.UpdateEntryInput) (*domain.CredentialEntry, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.EntryID == "" {
		return nil, domain.ErrNotFound
	}
	p := in.Patch
	if p.Empty() {
		return nil, domain.NewValidationError("", "at least one field must be provided")
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if err := checkTitle(t); err != nil {
			return nil, err
		}
		p.Title = &t
	}
	if p.Payload != nil {
		if err := checkPayload(*p.Payload); err != nil {
			return nil, err
		}
	}
	if err := checkMetadata(p.Username, p.URL, p.Notes, p.Category); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	upd := ports.EntryUpdate{Patch: p, UpdatedAt: now}
	if p.Payload != nil {
		upd.Strength = strength.Score(*p.Payload)
		upd.Digest = payloadDigest(in.UserID, *p.Payload)
	}

	updated, err := s.repo.Update(ctx, in.EntryID, in.UserID, upd, s.audit(domain.ActionUpdatePassword, "Updated password entry %q", in.Meta, now))
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	s.log.Info().Str("user_id", in.UserID).Str("entry_id", updated.ID).Bool("payload_changed", p.Payload != nil).Msg("entry updated")
	if p.Payload != nil {
		s.evaluate(ctx, updated)
	}
	return updated, nil
}

// Delete reports false, without error, when the entry does not exist or
// belongs to someone else.
func (s *VaultService) Delete(ctx context.Context, userID, entryID string, meta ports.RequestMeta) (bool, error) {
	if userID == "" {
		return false, domain.ErrUnauthorized
	}
	if entryID == "" {
		return false, nil
	}
	ok, err := s.repo.Delete(ctx, entryID, userID, s.audit(domain.ActionDeletePassword, "Deleted password entry %q", meta, s.now().UTC()))
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	if ok {
		s.log.Info().Str("user_id", userID).Str("entry_id", entryID).Msg("entry deleted")
		s.forget(ctx, userID, entryID)
	}
	return ok, nil
}

func (s *VaultService) Stats(ctx context.Context, userID string) (*domain.PasswordStats, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComputeStats(entries), nil
}

// ComputeStats classifies entries by their stored strength.
func ComputeStats(entries []*domain.CredentialEntry) *domain.PasswordStats {
	st := &domain.PasswordStats{Total: len(entries)}
	for _, e := range entries {
		switch strength.Classify(e.Strength) {
		case strength.ClassWeak:
			st.Weak++
		case strength.ClassStrong:
			st.Strong++
		default:
			st.Medium++
		}
	}
	return st
}

func (s *VaultService) audit(action, format string, meta ports.RequestMeta, at time.Time) ports.AuditFunc {
	return func(e *domain.CredentialEntry) *domain.ActivityLogEntry {
		return &domain.ActivityLogEntry{
			UserID:    e.UserID,
			Action:    action,
			Details:   fmt.Sprintf(format, e.Title),
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			CreatedAt: at,
		}
	}
}

func (s *VaultService) evaluate(ctx context.Context, e *domain.CredentialEntry) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.EvaluateEntry(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("user_id", e.UserID).Str("entry_id", e.ID).Msg("alert evaluation failed")
	}
}

func (s *VaultService) forget(ctx context.Context, userID, entryID string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.ForgetEntry(ctx, userID, entryID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Str("entry_id", entryID).Msg("alert cleanup failed")
	}
}

// payloadDigest fingerprints a payload for reuse detection. Keying by user
// keeps digests from correlating across accounts.
func payloadDigest(userID, payload string) string {
	mac := hmac.New(sha256.New, []byte(userID))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func checkTitle(title string) error {
	if title == "" {
		return domain.NewValidationError("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return domain.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	return nil
}

func checkPayload(payload string) error {
	if payload == "" {
		return domain.NewValidationError("payload", "is required")
	}
	if len(payload) > maxPayloadLen {
		return domain.NewValidationError("payload", fmt.Sprintf("must be at most %d bytes", maxPayloadLen))
	}
	return nil
}

func checkMetadata(username, url, notes, category *string) error {
	limits := []struct {
		name string
		v    *string
		max  int
	}{
		{"username", username, maxShortField},
		{"url", url, maxURLLen},
		{"notes", notes, maxNotesLen},
		{"category", category, maxShortField},
	}
	for _, l := range limits {
		if l.v != nil && utf8.RuneCountInString(*l.v) > l.max {
			return domain.NewValidationError(l.name, fmt.Sprintf("must be at most %d characters", l.max))
		}
	}
	return nil
}
