package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/identity"
)

var (
	ErrUserEmailExists = domain.ErrEmailExists
	ErrWrongPassword   = errors.New("wrong password")
	ErrUserNotFound    = domain.ErrNotFound
)

// IdentityVerifier checks an assertion issued by the external identity
// provider.
type IdentityVerifier interface {
	Verify(assertion string) (identity.Identity, error)
}

type AuthService struct {
	store    Store
	verifier IdentityVerifier
}

func NewAuthService(store Store, verifier IdentityVerifier) *AuthService {
	return &AuthService{
		store:    store,
		verifier: verifier,
	}
}

// Signup creates a user with the default role. The role is chosen once
// afterwards with UserService.ChooseRole.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := s.checkEmailExists(ctx, user.Email); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hashedPassword
	user.Role = domain.RoleUser
	user.RoleChosen = false

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.CreateUser -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.store.FindUserByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

// ExchangeAssertion trades a verified identity provider assertion for the
// matching local user, creating it on first sign in.
func (s *AuthService) ExchangeAssertion(ctx context.Context, assertion string) (domain.User, error) {
	if s.verifier == nil {
		return domain.User{}, fmt.Errorf("%w: identity provider is not configured", domain.ErrUnauthorized)
	}

	id, err := s.verifier.Verify(assertion)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	user, err := s.store.FindUserByEmail(ctx, id.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("s.store.FindUserByEmail -> %w", err)
	}

	user, err = s.store.CreateUser(ctx, domain.User{
		Email:    id.Email,
		Name:     id.Name,
		PhotoURL: id.Picture,
		Role:     domain.RoleUser,
	})
	if errors.Is(err, domain.ErrEmailExists) {
		// Lost a race with a concurrent first sign in.
		user, err = s.store.FindUserByEmail(ctx, id.Email)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.CreateUser -> %w", err)
	}

	zap.L().Info("user created from identity assertion", zap.Uint("user_id", user.ID))

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) checkEmailExists(ctx context.Context, email string) error {
	_, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return ErrUserEmailExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
