package domain

import "time"

// AlertKind names the vault condition an alert reports.
type AlertKind string

const (
	AlertWeakPassword   AlertKind = "weak_password"
	AlertReusedPassword AlertKind = "reused_password"
)

// Severity of a SecurityAlert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SecurityAlert is raised by evaluating vault state. It is never deleted.
//
// At most one unresolved alert exists per (user, kind, subject). Subject is
// the entry id for weak passwords and the payload digest for reuse.
// Fingerprint is the vault state the alert was last refreshed from; a user
// resolving an alert silences that fingerprint only. AutoResolved marks
// alerts closed because the condition went away rather than by the user.
type SecurityAlert struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Kind         AlertKind  `json:"kind"`
	Severity     Severity   `json:"severity"`
	Subject      string     `json:"-"`
	Fingerprint  string     `json:"-"`
	EntryIDs     []string   `json:"entry_ids,omitempty"`
	Message      string     `json:"message"`
	Resolved     bool       `json:"resolved"`
	AutoResolved bool       `json:"auto_resolved,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}
