package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

const minPasswordLen = 6

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// AuthService owns credentials and sessions: registration, login, token
// resolution on every request, profile and logout.
type AuthService struct {
	users   UserStore
	hasher  *utils.PasswordHasher
	tokens  *utils.TokenCodec
	revoked TokenRevoker
	library LibraryStore
	ent     *EntitlementService
	clock   Clock
}

// NewAuthService wires an AuthService.  revoked may be nil, in which case
// logout only asks the client to discard its token.
func NewAuthService(users UserStore, hasher *utils.PasswordHasher, tokens *utils.TokenCodec,
	revoked TokenRevoker, library LibraryStore, ent *EntitlementService, clock Clock) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, revoked: revoked,
		library: library, ent: ent, clock: clock}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Session is what register and login hand back to the client.
type Session struct {
	User                  model.User
	Token                 utils.IssuedToken
	HasActiveSubscription bool
}

// Profile is the caller's own account view.
type Profile struct {
	User                  model.User          `json:"user"`
	LibraryCount          int64               `json:"libraryCount"`
	HasActiveSubscription bool                `json:"hasActiveSubscription"`
	Subscription          *model.Subscription `json:"subscription"`
}

// Register creates a USER account and signs it in.  The role can never be
// chosen by the caller.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := repository.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return Session{}, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if len(in.Password) > maxPasswordBytes {
		return Session{}, invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    s.clock.now(),
	}
	if name := strings.TrimSpace(in.Username); name != "" {
		u.Username = &name
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailInUse
		}
		return Session{}, err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok}, nil
}

// VerifyCredentials returns the account matching email and password.  An
// unknown email and a wrong password produce the same error, and the
// unknown-email path still pays for one bcrypt comparison.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Burn(password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" {
		return Session{}, invalid("email", "is required")
	}
	if password == "" {
		return Session{}, invalid("password", "is required")
	}
	u, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	active, err := s.ent.HasActiveSubscription(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok, HasActiveSubscription: active}, nil
}

// FindByID returns the user with id or ErrNotFound.
func (s *AuthService) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Authenticate resolves a raw bearer token to the current user record.
// Every token failure is reported as ErrUnauthorized joined with the
// codec's cause, so callers can log expiry and forgery apart while
// answering both the same way.  The role comes from the store, never from
// the token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, utils.Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return model.User{}, utils.Claims{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return model.User{}, utils.Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return model.User{}, utils.Claims{}, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}
	u, err := s.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return model.User{}, utils.Claims{}, fmt.Errorf("%w: subject no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return model.User{}, utils.Claims{}, err
	}
	return u, claims, nil
}

// Profile returns the caller's account with library and subscription state.
func (s *AuthService) Profile(ctx context.Context, u model.User) (Profile, error) {
	count, err := s.library.CountByUser(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	sub, err := s.ent.GetActiveSubscription(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, LibraryCount: count, HasActiveSubscription: sub != nil, Subscription: sub}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims utils.Claims) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt)
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return invalid("email", "must be a valid email address")
	}
	return nil
}
