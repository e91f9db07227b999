package domain

import "time"

// CredentialEntry is one stored credential owned by a single user.
// Payload is opaque to the service; it is stored exactly as supplied.
type CredentialEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Username      string    `json:"username,omitempty"`
	URL           string    `json:"url,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Category      string    `json:"category,omitempty"`
	Payload       string    `json:"payload"`
	PayloadDigest string    `json:"-"`
	Strength      int       `json:"strength"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EntryPatch lists the fields of an update. Nil means "leave unchanged".
type EntryPatch struct {
	Title    *string
	Username *string
	URL      *string
	Notes    *string
	Category *string
	Payload  *string
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.Title == nil && p.Username == nil && p.URL == nil &&
		p.Notes == nil && p.Category == nil && p.Payload == nil
}

// PasswordStats is computed on demand over a user's entries and never stored.
// Entries in the middle band count toward Medium only.
type PasswordStats struct {
	Total  int `json:"total"`
	Strong int `json:"strong"`
	Weak   int `json:"weak"`
	Medium int `json:"medium"`
}
