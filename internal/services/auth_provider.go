package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/utils"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Principal is a stable identity issued by an auth provider.
type Principal struct {
	UID   string
	Email string
}

// AuthProvider signs principals up and in. Implementations return
// *AuthError so callers never inspect provider-specific failures.
type AuthProvider interface {
	Name() string
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	SignIn(ctx context.Context, email, password string) (*Principal, error)
}

// AuthErrorKind is the closed set of provider failures.
type AuthErrorKind string

const (
	AuthAlreadyRegistered  AuthErrorKind = "already-registered"
	AuthInvalidCredential  AuthErrorKind = "invalid-credential"
	AuthWeakSecret         AuthErrorKind = "weak-secret"
	AuthNetworkUnavailable AuthErrorKind = "network-unavailable"
	AuthRateLimited        AuthErrorKind = "rate-limited"
	AuthUnknown            AuthErrorKind = "unknown"
)

type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func authError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// AuthKindOf returns the provider failure kind, or AuthUnknown.
func AuthKindOf(err error) AuthErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthUnknown
}

// LocalAuthProvider keeps bcrypt credentials in the store. Failed sign-ins
// drain a per-email token bucket; an empty bucket rejects attempts until it
// refills.
type LocalAuthProvider struct {
	db       *gorm.DB
	attempts int
	refill   rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalAuthProvider(db *gorm.DB, cfg *config.AuthConfig) *LocalAuthProvider {
	attempts := cfg.MaxFailedAttempts
	if attempts <= 0 {
		attempts = 5
	}
	window := time.Duration(cfg.LockoutMinutes) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LocalAuthProvider{
		db:       db,
		attempts: attempts,
		refill:   rate.Every(window / time.Duration(attempts)),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (p *LocalAuthProvider) Name() string { return "local" }

func (p *LocalAuthProvider) limiter(email string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[email]
	if !ok {
		l = rate.NewLimiter(p.refill, p.attempts)
		p.limiters[email] = l
	}
	return l
}

func (p *LocalAuthProvider) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	return p.signUp(ctx, p.db, email, password)
}

// signUp writes the credential through db, which may be an open transaction.
func (p *LocalAuthProvider) signUp(ctx context.Context, db *gorm.DB, email, password string) (*Principal, error) {
	if len(password) < utils.MinPasswordLength {
		return nil, authError(AuthWeakSecret, fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength))
	}

	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, authError(AuthWeakSecret, err)
	}
	if err != nil {
		return nil, authError(AuthUnknown, err)
	}

	cred := &models.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.WithContext(ctx).Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, authError(AuthAlreadyRegistered, errors.New("this email is already registered"))
		}
		return nil, authError(AuthUnknown, err)
	}
	return &Principal{UID: cred.UID, Email: cred.Email}, nil
}

func (p *LocalAuthProvider) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	limiter := p.limiter(email)
	if limiter.Tokens() < 1 {
		return nil, authError(AuthRateLimited, errors.New("too many failed attempts, try again later"))
	}

	var cred models.Credential
	err := p.db.WithContext(ctx).Where("email = ?", email).Take(&cred).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authError(AuthUnknown, err)
	}
	if err != nil || !utils.CheckPassword(password, cred.PasswordHash) {
		limiter.Allow()
		return nil, authError(AuthInvalidCredential, errors.New("invalid email or password"))
	}
	return &Principal{UID: cred.UID, Email: cred.Email}, nil
}
