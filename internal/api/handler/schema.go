package handler

import (
	"time"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Vault ---

type createEntryRequest struct {
	Title    string `json:"title"    validate:"required,max=200"`
	Username string `json:"username" validate:"max=200"`
	URL      string `json:"url"      validate:"omitempty,url,max=2048"`
	Notes    string `json:"notes"    validate:"max=10000"`
	Category string `json:"category" validate:"max=200"`
	Payload  string `json:"encrypted_password" validate:"required"`
}

// updateEntryRequest uses pointers so that absent fields stay untouched.
type updateEntryRequest struct {
	Title    *string `json:"title"    validate:"omitempty,min=1,max=200"`
	Username *string `json:"username" validate:"omitempty,max=200"`
	URL      *string `json:"url"      validate:"omitempty,max=2048"`
	Notes    *string `json:"notes"    validate:"omitempty,max=10000"`
	Category *string `json:"category" validate:"omitempty,max=200"`
	Payload  *string `json:"encrypted_password" validate:"omitempty,min=1"`
}

type entryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Username  string    `json:"username,omitempty"`
	URL       string    `json:"url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Category  string    `json:"category,omitempty"`
	Payload   string    `json:"encrypted_password"`
	Strength  int       `json:"strength"`
	Class     string    `json:"strength_class"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type statsResponse struct {
	Total            int     `json:"total"`
	Strong           int     `json:"strong"`
	Weak             int     `json:"weak"`
	Medium           int     `json:"medium"`
	StrongPercent    float64 `json:"strong_percent"`
	WeakPercent      float64 `json:"weak_percent"`
	UnresolvedAlerts int64   `json:"unresolved_alerts"`
}

// --- Alerts ---

type resolveResponse struct {
	Resolved bool `json:"resolved"`
}

type scanResponse struct {
	Message string `json:"message"`
	Queued  bool   `json:"queued"`
}

// --- Generator ---

type generateRequest struct {
	Length           int   `json:"length"            validate:"omitempty,gte=4,lte=128"`
	IncludeUppercase *bool `json:"include_uppercase"`
	IncludeLowercase *bool `json:"include_lowercase"`
	IncludeNumbers   *bool `json:"include_numbers"`
	IncludeSymbols   *bool `json:"include_symbols"`
}
