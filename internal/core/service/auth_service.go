package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// LoginGate is the slice of RateGate the auth service depends on.
type LoginGate interface {
	Allow(ctx context.Context, identity string) error
	Fail(ctx context.Context, identity string) error
	Succeed(ctx context.Context, identity string) error
}

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.AuthRepository
	activity  ports.ActivityRepository
	gate      LoginGate
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	repo ports.AuthRepository,
	activity ports.ActivityRepository,
	gate LoginGate,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		activity:  activity,
		gate:      gate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, domain.NewValidationError("username", fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen))
	}
	if in.Password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if !strength.IsStrong(in.Password) {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, created.ID, domain.ActionRegister, "Account created", in.Meta)
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login checks the rate gate before looking at credentials. Unknown users and
// wrong passwords are indistinguishable to the caller and both count as failures.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (string, *domain.User, error) {
	if in.Username == "" || in.Password == "" {
		return "", nil, domain.NewValidationError("", "username and password are required")
	}

	if err := s.gate.Allow(ctx, in.Identity); err != nil {
		return "", nil, err
	}

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, err
	}

	if user == nil {
		// Burn comparable time so response latency does not reveal unknown usernames.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(in.Password))
		return "", nil, s.fail(ctx, in.Identity)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return "", nil, s.fail(ctx, in.Identity)
	}

	if err := s.gate.Succeed(ctx, in.Identity); err != nil {
		s.log.Warn().Err(err).Str("identity", in.Identity).Msg("failed to reset attempt counter")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.record(ctx, user.ID, domain.ActionLogin, "Signed in", in.Meta)
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *AuthService) fail(ctx context.Context, identity string) error {
	if err := s.gate.Fail(ctx, identity); err != nil {
		return err
	}
	return domain.ErrInvalidCredentials
}

// record appends an audit entry. Failures are logged, not returned.
func (s *AuthService) record(ctx context.Context, userID, action, details string, meta ports.RequestMeta) {
	if s.activity == nil {
		return
	}
	err := s.activity.Append(ctx, &domain.ActivityLogEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Str("action", action).Msg("failed to append activity")
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("credential-vault-placeholder"), bcrypt.DefaultCost)
	})
	return dummy
}
