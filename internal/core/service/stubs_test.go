package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

// --- users ---

type stubAuthRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[copy.Username] = cloneUser(copy)
	return copy, nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// --- activity ---

type stubActivityRepo struct {
	mu   sync.Mutex
	logs []*domain.ActivityLogEntry
	err  error
}

func (r *stubActivityRepo) Append(_ context.Context, a *domain.ActivityLogEntry) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *a
	c.ID = fmt.Sprintf("log-%d", len(r.logs)+1)
	r.logs = append(r.logs, &c)
	return nil
}

func (r *stubActivityRepo) ListRecent(_ context.Context, userID string, limit int) ([]*domain.ActivityLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ActivityLogEntry
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.logs[i].UserID == userID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

func (r *stubActivityRepo) actions(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, l := range r.logs {
		if l.UserID == userID {
			out = append(out, l.Action)
		}
	}
	return out
}

// --- vault ---

type stubVaultRepo struct {
	entries  map[string]*domain.CredentialEntry
	seq      int
	activity *stubActivityRepo
}

func newStubVaultRepo(activity *stubActivityRepo) *stubVaultRepo {
	return &stubVaultRepo{entries: make(map[string]*domain.CredentialEntry), activity: activity}
}

func cloneEntry(e *domain.CredentialEntry) *domain.CredentialEntry {
	c := *e
	return &c
}

func (r *stubVaultRepo) List(_ context.Context, userID string) ([]*domain.CredentialEntry, error) {
	var out []*domain.CredentialEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubVaultRepo) FindByID(_ context.Context, entryID, userID string) (*domain.CredentialEntry, error) {
	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *stubVaultRepo) FindByDigest(ctx context.Context, userID, digest string) ([]*domain.CredentialEntry, error) {
	all, _ := r.List(ctx, userID)
	var out []*domain.CredentialEntry
	for _, e := range all {
		if e.PayloadDigest == digest {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubVaultRepo) Create(ctx context.Context, entry *domain.CredentialEntry, audit ports.AuditFunc) (*domain.CredentialEntry, error) {
	r.seq++
	c := cloneEntry(entry)
	c.ID = fmt.Sprintf("entry-%02d", r.seq)
	r.entries[c.ID] = c
	if err := r.audit(ctx, audit, c); err != nil {
		return nil, err
	}
	return cloneEntry(c), nil
}

func (r *stubVaultRepo) Update(ctx context.Context, entryID, userID string, upd ports.EntryUpdate, audit ports.AuditFunc) (*domain.CredentialEntry, error) {
	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	p := upd.Patch
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Username != nil {
		e.Username = *p.Username
	}
	if p.URL != nil {
		e.URL = *p.URL
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Payload != nil {
		e.Payload = *p.Payload
		e.Strength = upd.Strength
		e.PayloadDigest = upd.Digest
	}
	e.UpdatedAt = upd.UpdatedAt
	if err := r.audit(ctx, audit, e); err != nil {
		return nil, err
	}
	return cloneEntry(e), nil
}

func (r *stubVaultRepo) Delete(ctx context.Context, entryID, userID string, audit ports.AuditFunc) (bool, error) {
	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(r.entries, entryID)
	return true, r.audit(ctx, audit, e)
}

func (r *stubVaultRepo) audit(ctx context.Context, audit ports.AuditFunc, e *domain.CredentialEntry) error {
	if audit == nil || r.activity == nil {
		return nil
	}
	return r.activity.Append(ctx, audit(e))
}

// --- alerts ---

type stubAlertRepo struct {
	alerts []*domain.SecurityAlert
}

func (r *stubAlertRepo) open(userID string, kind domain.AlertKind, subject string) *domain.SecurityAlert {
	for _, x := range r.alerts {
		if x.UserID == userID && x.Kind == kind && x.Subject == subject && !x.Resolved {
			return x
		}
	}
	return nil
}

func (r *stubAlertRepo) Raise(_ context.Context, a *domain.SecurityAlert) (bool, error) {
	if x := r.open(a.UserID, a.Kind, a.Subject); x != nil {
		x.Severity, x.Fingerprint, x.Message = a.Severity, a.Fingerprint, a.Message
		x.EntryIDs = append([]string(nil), a.EntryIDs...)
		return false, nil
	}
	for _, x := range r.alerts {
		if x.UserID == a.UserID && x.Kind == a.Kind && x.Subject == a.Subject &&
			x.Fingerprint == a.Fingerprint && x.Resolved && !x.AutoResolved {
			return false, nil
		}
	}
	c := *a
	c.ID = fmt.Sprintf("alert-%d", len(r.alerts)+1)
	r.alerts = append(r.alerts, &c)
	return true, nil
}

func (r *stubAlertRepo) Retire(_ context.Context, userID string, kind domain.AlertKind, subject string, at time.Time) (bool, error) {
	x := r.open(userID, kind, subject)
	if x == nil {
		return false, nil
	}
	x.Resolved, x.AutoResolved, x.ResolvedAt = true, true, &at
	return true, nil
}

func (r *stubAlertRepo) List(_ context.Context, userID string, unresolvedOnly bool) ([]*domain.SecurityAlert, error) {
	var out []*domain.SecurityAlert
	for _, a := range r.alerts {
		if a.UserID != userID || (unresolvedOnly && a.Resolved) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubAlertRepo) Resolve(_ context.Context, alertID, userID string, at time.Time) (bool, error) {
	for _, a := range r.alerts {
		if a.ID == alertID && a.UserID == userID && !a.Resolved {
			a.Resolved = true
			a.ResolvedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAlertRepo) CountUnresolved(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, a := range r.alerts {
		if a.UserID == userID && !a.Resolved {
			n++
		}
	}
	return n, nil
}

func (r *stubAlertRepo) openByKind(userID string, kind domain.AlertKind) []*domain.SecurityAlert {
	var out []*domain.SecurityAlert
	for _, a := range r.byKind(userID, kind) {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

func (r *stubAlertRepo) byKind(userID string, kind domain.AlertKind) []*domain.SecurityAlert {
	var out []*domain.SecurityAlert
	for _, a := range r.alerts {
		if a.UserID == userID && a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// --- attempts ---

type attemptRecord struct {
	count int
	last  time.Time
}

type stubAttemptStore struct {
	mu      sync.Mutex
	records map[string]*attemptRecord
}

func newStubAttemptStore() *stubAttemptStore {
	return &stubAttemptStore{records: make(map[string]*attemptRecord)}
}

func (s *stubAttemptStore) load(identity string, now time.Time, window time.Duration) *attemptRecord {
	r, ok := s.records[identity]
	if !ok {
		r = &attemptRecord{}
		s.records[identity] = r
	}
	if !r.last.IsZero() && now.Sub(r.last) >= window {
		r.count = 0
	}
	return r
}

func (s *stubAttemptStore) Touch(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.load(identity, now, window)
	r.last = now
	return r.count, nil
}

func (s *stubAttemptStore) Increment(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.load(identity, now, window)
	r.count++
	r.last = now
	return r.count, nil
}

func (s *stubAttemptStore) Reset(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identity)
	return nil
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func newClock() *clock                   { return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)} }
func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
