package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

// AlertService raises alerts for weak and reused passwords and retires them
// when the condition goes away.
//
// A weak-password alert is keyed by its entry id, a reuse alert by the shared
// payload digest. Re-evaluation refreshes the open alert for a key instead of
// adding another one. A resolved alert stays resolved until the payload
// behind it changes.
type AlertService struct {
	alerts ports.AlertRepository
	vault  ports.VaultRepository
	log    zerolog.Logger
	now    func() time.Time
	hook   func(kind domain.AlertKind)
}

func NewAlertService(alerts ports.AlertRepository, vault ports.VaultRepository, log zerolog.Logger) *AlertService {
	return &AlertService{alerts: alerts, vault: vault, log: log, now: time.Now}
}

// OnRaise registers fn to be called once for every newly created alert.
func (s *AlertService) OnRaise(fn func(kind domain.AlertKind)) *AlertService {
	s.hook = fn
	return s
}

// EvaluateEntry brings the alerts touching e in line with its current payload.
func (s *AlertService) EvaluateEntry(ctx context.Context, e *domain.CredentialEntry) error {
	var errs []error
	if err := s.checkWeak(ctx, e); err != nil {
		errs = append(errs, err)
	}
	if e.PayloadDigest != "" {
		same, err := s.vault.FindByDigest(ctx, e.UserID, e.PayloadDigest)
		if err != nil {
			errs = append(errs, fmt.Errorf("find reused: %w", err))
		} else if err := s.checkReuse(ctx, e.UserID, e.PayloadDigest, same); err != nil {
			errs = append(errs, err)
		}
	}
	// The entry may have left the reuse group of its previous payload.
	if err := s.recheckReuseOf(ctx, e.UserID, e.ID, e.PayloadDigest); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ForgetEntry retires the alerts a deleted entry leaves behind.
func (s *AlertService) ForgetEntry(ctx context.Context, userID, entryID string) error {
	var errs []error
	if err := s.retire(ctx, userID, domain.AlertWeakPassword, entryID); err != nil {
		errs = append(errs, err)
	}
	if err := s.recheckReuseOf(ctx, userID, entryID, ""); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ScanVault evaluates every entry of userID and retires open alerts whose
// condition no longer holds.
func (s *AlertService) ScanVault(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	entries, err := s.vault.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("scan vault: %w", err)
	}

	var errs []error
	weak := make(map[string]bool)
	groups := make(map[string][]*domain.CredentialEntry)
	var digests []string
	for _, e := range entries {
		if strength.Classify(e.Strength) == strength.ClassWeak {
			weak[e.ID] = true
		}
		if err := s.checkWeak(ctx, e); err != nil {
			errs = append(errs, err)
		}
		if e.PayloadDigest == "" {
			continue
		}
		if _, seen := groups[e.PayloadDigest]; !seen {
			digests = append(digests, e.PayloadDigest)
		}
		groups[e.PayloadDigest] = append(groups[e.PayloadDigest], e)
	}
	for _, d := range digests {
		if err := s.checkReuse(ctx, userID, d, groups[d]); err != nil {
			errs = append(errs, err)
		}
	}

	open, err := s.alerts.List(ctx, userID, true)
	if err != nil {
		errs = append(errs, fmt.Errorf("list open alerts: %w", err))
	}
	for _, a := range open {
		var holds bool
		switch a.Kind {
		case domain.AlertWeakPassword:
			holds = weak[a.Subject]
		case domain.AlertReusedPassword:
			holds = len(groups[a.Subject]) >= 2
		default:
			continue
		}
		if !holds {
			if err := s.retire(ctx, userID, a.Kind, a.Subject); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.log.Debug().Str("user_id", userID).Int("entries", len(entries)).Msg("vault scanned")
	return errors.Join(errs...)
}

func (s *AlertService) List(ctx context.Context, userID string, includeResolved bool) ([]*domain.SecurityAlert, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.alerts.List(ctx, userID, !includeResolved)
}

// Resolve marks the alert resolved. It returns false when there is nothing the
// caller may resolve.
func (s *AlertService) Resolve(ctx context.Context, userID, alertID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrUnauthorized
	}
	if alertID == "" {
		return false, nil
	}
	ok, err := s.alerts.Resolve(ctx, alertID, userID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("resolve alert: %w", err)
	}
	if ok {
		s.log.Info().Str("user_id", userID).Str("alert_id", alertID).Msg("alert resolved")
	}
	return ok, nil
}

func (s *AlertService) CountUnresolved(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrUnauthorized
	}
	return s.alerts.CountUnresolved(ctx, userID)
}

func (s *AlertService) checkWeak(ctx context.Context, e *domain.CredentialEntry) error {
	if strength.Classify(e.Strength) != strength.ClassWeak {
		return s.retire(ctx, e.UserID, domain.AlertWeakPassword, e.ID)
	}
	return s.raise(ctx, &domain.SecurityAlert{
		UserID:      e.UserID,
		Kind:        domain.AlertWeakPassword,
		Severity:    domain.SeverityHigh,
		Subject:     e.ID,
		Fingerprint: e.PayloadDigest,
		EntryIDs:    []string{e.ID},
		Message:     fmt.Sprintf("%q uses a weak password (strength %d)", e.Title, e.Strength),
	})
}

func (s *AlertService) checkReuse(ctx context.Context, userID, digest string, same []*domain.CredentialEntry) error {
	if len(same) < 2 {
		return s.retire(ctx, userID, domain.AlertReusedPassword, digest)
	}
	ids := make([]string, 0, len(same))
	for _, e := range same {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return s.raise(ctx, &domain.SecurityAlert{
		UserID:      userID,
		Kind:        domain.AlertReusedPassword,
		Severity:    domain.SeverityMedium,
		Subject:     digest,
		Fingerprint: strings.Join(ids, ","),
		EntryIDs:    ids,
		Message:     fmt.Sprintf("the same password is used by %d entries", len(ids)),
	})
}

// recheckReuseOf re-evaluates open reuse alerts listing entryID, except the
// one for keepDigest which the caller has just refreshed.
func (s *AlertService) recheckReuseOf(ctx context.Context, userID, entryID, keepDigest string) error {
	open, err := s.alerts.List(ctx, userID, true)
	if err != nil {
		return fmt.Errorf("list open alerts: %w", err)
	}
	var errs []error
	for _, a := range open {
		if a.Kind != domain.AlertReusedPassword || a.Subject == keepDigest || !slices.Contains(a.EntryIDs, entryID) {
			continue
		}
		same, err := s.vault.FindByDigest(ctx, userID, a.Subject)
		if err != nil {
			errs = append(errs, fmt.Errorf("find reused: %w", err))
			continue
		}
		if err := s.checkReuse(ctx, userID, a.Subject, same); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *AlertService) retire(ctx context.Context, userID string, kind domain.AlertKind, subject string) error {
	ok, err := s.alerts.Retire(ctx, userID, kind, subject, s.now().UTC())
	if err != nil {
		return fmt.Errorf("retire %s alert: %w", kind, err)
	}
	if ok {
		s.log.Info().Str("user_id", userID).Str("kind", string(kind)).Msg("security alert retired")
	}
	return nil
}

func (s *AlertService) raise(ctx context.Context, a *domain.SecurityAlert) error {
	a.CreatedAt = s.now().UTC()
	created, err := s.alerts.Raise(ctx, a)
	if err != nil {
		return fmt.Errorf("raise %s alert: %w", a.Kind, err)
	}
	if created {
		s.log.Info().Str("user_id", a.UserID).Str("kind", string(a.Kind)).Msg("security alert raised")
		if s.hook != nil {
			s.hook(a.Kind)
		}
	}
	return nil
}
