package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/idx"
)

var ErrInvalidUsername = errors.New("invalid_username")

// AccountService provisions accounts. It backs the CLI only.
type AccountService struct {
	Store store.Store
}

// CreateUser inserts a new account. Usernames are case-sensitive and stored
// as given, minus surrounding whitespace.
func (s *AccountService) CreateUser(ctx context.Context, username, email string, active bool) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, ErrInvalidUsername
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:        idx.NewAt(now).String(),
		Username:  username,
		Email:     strings.TrimSpace(email),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SetActive enables or disables the account with the given username.
func (s *AccountService) SetActive(ctx context.Context, username string, active bool) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Users().SetUserActive(ctx, u.ID, active); err != nil {
		return domain.User{}, err
	}
	u.Active = active
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *AccountService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
