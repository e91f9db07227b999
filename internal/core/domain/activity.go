package domain

import "time"

// Activity action tags.
const (
	ActionCreatePassword = "create_password"
	ActionUpdatePassword = "update_password"
	ActionDeletePassword = "delete_password"
	ActionRegister       = "register"
	ActionLogin          = "login"
)

// ActivityLogEntry is an append-only audit record of one action by a user.
type ActivityLogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
