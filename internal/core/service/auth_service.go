package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// AuthService implements login, token verification and superuser bootstrap.
type AuthService struct {
	users     ports.UserRepository
	limiter   ports.LoginLimiter
	observer  ports.LoginObserver
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginLimiter throttles Login per username.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithLoginObserver reports each Login outcome.
func WithLoginObserver(o ports.LoginObserver) AuthOption {
	return func(s *AuthService) { s.observer = o }
}

// WithClock overrides the clock used for token timestamps.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log.With().Str("component", "auth_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks credentials and returns a signed token. Unknown users, wrong
// passwords and inactive accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	token, user, err := s.login(ctx, username, password)
	if s.observer != nil {
		s.observer.ObserveLogin(domain.OutcomeOf(err))
	}
	return token, user, err
}

func (s *AuthService) login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("login limiter failed, allowing attempt")
		} else if !allowed {
			return "", nil, domain.ErrRateLimited
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if isNotFound(err) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Info().Str("username", username).Msg("login refused for inactive user")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// Identify verifies token and reloads its subject, so a deleted or deactivated
// user loses access immediately and the stored role is authoritative.
func (s *AuthService) Identify(ctx context.Context, token string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return domain.Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	user, err := s.users.Get(ctx, sub)
	if isNotFound(err) {
		return domain.Identity{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	if !user.IsActive {
		return domain.Identity{}, fmt.Errorf("%w: user is inactive", domain.ErrUnauthenticated)
	}
	return user.Identity(), nil
}

// Bootstrap creates an active superuser unless username already exists.
func (s *AuthService) Bootstrap(ctx context.Context, username, password, email string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: bootstrap requires a username and password", domain.ErrInvalidInput)
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  true,
		IsActive:     true,
		JoinDate:     &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create superuser: %w", err)
	}
	s.log.Info().Str("username", username).Msg("superuser bootstrapped")
	return created, nil
}

// Refresh reissues a token with a fresh expiry. The user is reloaded so the
// new claims carry the current role.
func (s *AuthService) Refresh(ctx context.Context, userID string) (string, *domain.User, error) {
	user, err := s.users.Get(ctx, userID)
	if isNotFound(err) {
		return "", nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: user is inactive", domain.ErrUnauthenticated)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":       user.ID,
		"username":  user.Username,
		"role":      string(user.Role),
		"superuser": user.IsSuperuser,
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
