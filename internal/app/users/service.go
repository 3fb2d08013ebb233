package users

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"soundshelf/internal/apperr"
	"soundshelf/internal/auth"
	"soundshelf/internal/models"
	"soundshelf/internal/store"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	minEmailLength    = 8
)

var (
	// ErrInvalidCredentials is returned for any failed login. Unknown email and
	// wrong password are indistinguishable.
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "invalid email or password")
	// ErrWrongPassword is returned when the current password does not match on a password change.
	ErrWrongPassword = apperr.New(apperr.Unauthenticated, "current password is incorrect")
	// ErrTokenExpired is returned when refreshing for an account that no longer exists.
	ErrTokenExpired = apperr.New(apperr.Unauthenticated, "token expired")
	// ErrAdminProtected is returned when a role change or delete targets an admin account.
	ErrAdminProtected = apperr.New(apperr.Forbidden, "admin accounts cannot be demoted or deleted")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CredentialsByEmail(ctx context.Context, email string) (models.Credentials, error)
	CredentialsByID(ctx context.Context, id int64) (models.Credentials, error)
	UpdateUserRole(ctx context.Context, id int64, role models.Role) (models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// AuthResult is what a successful register, login or refresh hands back.
type AuthResult struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"type"`
}

// Service exposes account workflows.
type Service interface {
	Register(ctx context.Context, username, password, email string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Refresh(ctx context.Context, userID int64) (AuthResult, error)
	List(ctx context.Context) ([]models.User, error)
	ByUsername(ctx context.Context, username string) (models.User, error)
	Delete(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role models.Role) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, oldPassword, newPassword string) error
}

type service struct {
	store  Store
	creds  *auth.Credentials
	tokens *auth.Tokens
}

// New wires a Service backed by the provided Store.
func New(store Store, creds *auth.Credentials, tokens *auth.Tokens) Service {
	return &service{store: store, creds: creds, tokens: tokens}
}

func (s *service) Register(ctx context.Context, username, password, email string) (AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthResult{}, err
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return AuthResult{}, apperr.Validation("username must be at least 3 characters")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return AuthResult{}, apperr.Validation("password must be at least 8 characters")
	}
	if utf8.RuneCountInString(email) < minEmailLength || !strings.Contains(email, "@") {
		return AuthResult{}, apperr.Validation("email must be a valid address")
	}

	hash, err := s.creds.Hash(password)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Internal, "register", err)
	}

	user, err := s.store.CreateUser(ctx, username, email, hash)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

func (s *service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthResult{}, err
	}

	creds, err := s.store.CredentialsByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrUserNotFound) {
		s.creds.VerifyMissing(password)
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !s.creds.Verify(password, creds.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(creds.User)
}

func (s *service) Refresh(ctx context.Context, userID int64) (AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthResult{}, err
	}

	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return AuthResult{}, ErrTokenExpired
	}
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *service) ByUsername(ctx context.Context, username string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	return s.store.UserByUsername(ctx, username)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.notAdmin(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, id)
}

// UpdateRole only hands out the non-admin roles. Admin is reserved for the
// first account and cannot be taken away, so the API always keeps one admin.
func (s *service) UpdateRole(ctx context.Context, id int64, role models.Role) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	switch role {
	case models.RoleUser, models.RoleEditor, models.RoleBanned:
	default:
		return models.User{}, apperr.Validation("type must be one of user, editor, banned")
	}
	if err := s.notAdmin(ctx, id); err != nil {
		return models.User{}, err
	}
	return s.store.UpdateUserRole(ctx, id, role)
}

func (s *service) notAdmin(ctx context.Context, id int64) error {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return ErrAdminProtected
	}
	return nil
}

func (s *service) UpdatePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return apperr.Validation("new password must be at least 8 characters")
	}

	creds, err := s.store.CredentialsByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.creds.Verify(oldPassword, creds.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.creds.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update password", err)
	}
	return s.store.UpdateUserPassword(ctx, id, hash)
}

func (s *service) issue(user models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, Username: user.Username, Role: user.Role}, nil
}
