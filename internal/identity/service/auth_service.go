package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/TobiasDeBruijn/invoicex/internal/audit"
	identitydomain "github.com/TobiasDeBruijn/invoicex/internal/identity/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/ids"
	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/security"
	sessiondomain "github.com/TobiasDeBruijn/invoicex/internal/session/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// Audit actions written by the auth service. All are recorded under audit.SentinelOrgID.
const (
	actionRegister      = "register"
	actionLoginSuccess  = "login_success"
	actionLoginFailure  = "login_failure"
	actionEmailVerified = "email_verified"
	actionLogout        = "logout"
	resourceAuth        = "authentication"
)

// dummyPassword is verified against when the email is unknown, so a miss costs one bcrypt compare too.
const dummyPassword = "invoicex-dummy-password"

// RegisterResult holds the outcome of Register. VerificationToken is empty unless the service
// was built with ReturnVerificationToken.
type RegisterResult struct {
	UserID            string
	VerificationToken string
}

// LoginResult holds the session issued by Login.
type LoginResult struct {
	SessionToken string
	ExpiresAt    time.Time
	UserID       string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User, ident *identitydomain.Identity) error
	SetEmailVerified(ctx context.Context, id string) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
}

// SessionManager issues and removes sessions.
type SessionManager interface {
	Create(ctx context.Context, userID string) (*sessiondomain.Session, error)
	Remove(ctx context.Context, token string) error
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithAuditLogger records register, login, verification, and logout events.
func WithAuditLogger(l audit.AuditLogger) Option {
	return func(s *AuthService) { s.audit = l }
}

// WithMetrics counts login results. Nil disables them.
func WithMetrics(m *obs.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithLogger sets the logger that receives issued verification tokens. Nil keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// ReturnVerificationToken makes Register return the email verification token to the caller
// instead of only logging it. Development only.
func ReturnVerificationToken(enabled bool) Option {
	return func(s *AuthService) { s.returnToken = enabled }
}

// AuthService implements password register, login, email verification, and logout.
type AuthService struct {
	users       UserRepo
	identities  IdentityRepo
	sessions    SessionManager
	hasher      *security.Hasher
	tokens      *security.VerificationTokens
	audit       audit.AuditLogger
	metrics     *obs.Metrics
	logger      *slog.Logger
	returnToken bool
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	identities IdentityRepo,
	sessions SessionManager,
	hasher *security.Hasher,
	tokens *security.VerificationTokens,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:      users,
		identities: identities,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and its local identity, then issues an email verification token.
// A malformed request is apperr.ErrBadRequest; an email that is already registered is apperr.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	email = userdomain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:        ids.New(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		CreatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	ident := &identitydomain.Identity{
		ID:           ids.New(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user, ident); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, actionRegister)

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	result := &RegisterResult{UserID: user.ID}
	if s.returnToken {
		result.VerificationToken = token
	} else {
		// No mail transport exists; the token is handed to whatever ships the logs.
		s.logger.InfoContext(ctx, "auth: email verification token issued",
			"user_id", user.ID, "email", email, "token", token, "expires_at", expiresAt)
	}
	return result, nil
}

// Login verifies email and password and creates a session. Every mismatch, including an unknown
// email, is apperr.ErrUnauthorized with the same message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, s.loginFailed(ctx, "")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify([]byte(password), s.dummy())
		return nil, s.loginFailed(ctx, "")
	}
	ident, err := s.identities.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || !s.hasher.Verify([]byte(password), ident.PasswordHash) {
		return nil, s.loginFailed(ctx, user.ID)
	}
	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.Login(obs.LoginSuccess)
	s.logEvent(ctx, user.ID, actionLoginSuccess)
	return &LoginResult{SessionToken: sess.ID, ExpiresAt: sess.ExpiresAt, UserID: user.ID}, nil
}

// VerifyEmail marks the token's user as verified. An invalid or expired token, or one whose user
// no longer exists, is apperr.ErrBadRequest.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return fmt.Errorf("%w: invalid or expired verification token", apperr.ErrBadRequest)
	}
	if err := s.users.SetEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired verification token", apperr.ErrBadRequest)
		}
		return err
	}
	s.logEvent(ctx, userID, actionEmailVerified)
	return nil
}

// Logout removes the session the caller authenticated with.
func (s *AuthService) Logout(ctx context.Context) error {
	sessionID, ok := interceptors.GetSessionID(ctx)
	if !ok || sessionID == "" {
		return fmt.Errorf("%w: session required", apperr.ErrUnauthorized)
	}
	if err := s.sessions.Remove(ctx, sessionID); err != nil {
		return err
	}
	userID, _ := interceptors.GetUserID(ctx)
	s.logEvent(ctx, userID, actionLogout)
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID string) error {
	s.metrics.Login(obs.LoginFailure)
	s.logEvent(ctx, userID, actionLoginFailure)
	return fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
}

func (s *AuthService) logEvent(ctx context.Context, userID, action string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, audit.SentinelOrgID, userID, action, resourceAuth, "")
	}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash([]byte(dummyPassword))
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

var simpleEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !simpleEmail.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	if len(password) > 1024 {
		return errors.New("password must be at most 1024 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	switch {
	case !hasUpper:
		return errors.New("password must contain at least one uppercase letter")
	case !hasLower:
		return errors.New("password must contain at least one lowercase letter")
	case !hasNumber:
		return errors.New("password must contain at least one number")
	case !hasSymbol:
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
