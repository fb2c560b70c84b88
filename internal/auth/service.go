package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
	"github.com/smartmilk/smart-milk/internal/repo"
	"github.com/smartmilk/smart-milk/internal/session"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	DefaultCookieName = "sid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already exists")
	ErrUnauthenticated    = errors.New("authentication required")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,100}$`)
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName string
}

type LoginResult struct {
	User      models.User
	SessionID string
	Token     string
}

type Service struct {
	users      repo.UserRepository
	sessions   session.Store
	tokens     *TokenIssuer
	sessionTTL time.Duration
	cookieName string
	bcryptCost int
}

func NewService(users repo.UserRepository, sessions session.Store, tokens *TokenIssuer, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		cookieName: DefaultCookieName,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

func (s *Service) WithCookieName(name string) *Service {
	if name != "" {
		s.cookieName = name
	}
	return s
}

func (s *Service) CookieName() string { return s.cookieName }

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if !usernamePattern.MatchString(username) {
		return models.User{}, ValidationError{Field: "username", Message: "3-100 chars, letters/digits/._-"}
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return models.User{}, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         models.RoleUser,
	})
	if errors.Is(err, repo.ErrDuplicatedValueUnique) {
		return models.User{}, ErrUserExists
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the password and opens both a cookie session and a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	sid, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate token: %w", err)
	}

	return LoginResult{User: user, SessionID: sid, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// SessionUser resolves a session cookie value to a user id.
func (s *Service) SessionUser(ctx context.Context, sessionID string) (int, error) {
	userID, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return 0, ErrUnauthenticated
	}
	return userID, err
}

// TokenUser resolves a bearer token to a user id.
func (s *Service) TokenUser(token string) (int, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return 0, ErrUnauthenticated
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

// Authenticate resolves the caller of r. The session cookie wins over an
// Authorization: Bearer header when both are present.
func (s *Service) Authenticate(r *http.Request) (int, error) {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return s.SessionUser(r.Context(), c.Value)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return s.TokenUser(token)
	}
	return 0, ErrUnauthenticated
}

func (s *Service) ChangePassword(ctx context.Context, userID int, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ValidationError{Field: "email", Message: "invalid email"}
	}
	return nil
}

// ValidateEmail is exported for profile updates.
func ValidateEmail(email string) error {
	return validateEmail(email)
}
