package ports

import (
	"context"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

// RequestMeta identifies where a request came from. It is copied into audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// RegisterInput carries a new account's credentials.
type RegisterInput struct {
	Username string
	Password string
	Meta     RequestMeta
}

// LoginInput carries one authentication attempt. Identity is the rate gate key
// (normally the client address).
type LoginInput struct {
	Identity string
	Username string
	Password string
	Meta     RequestMeta
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
