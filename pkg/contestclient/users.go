package contestclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

type loginResponse struct {
	Token string      `json:"token"`
	User  User `json:"user"`
}

func (c *Client) Signup(ctx context.Context, email, password, name string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email":            email,
		"password":         password,
		"confirm_password": password,
		"name":             name,
	}, &user)

	return user, err
}

// Login signs in with local credentials and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	return c.startSession(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// ExchangeAssertion trades an identity provider assertion for a backend
// token. The assertion is not kept.
func (c *Client) ExchangeAssertion(ctx context.Context, assertion string) (User, error) {
	return c.startSession(ctx, "/auth/session", map[string]string{"assertion": assertion})
}

func (c *Client) startSession(ctx context.Context, path string, body any) (User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return User{}, err
	}
	if err := c.sessions.Save(State{Token: resp.Token, User: resp.User}); err != nil {
		return User{}, fmt.Errorf("c.sessions.Save -> %w", err)
	}

	return resp.User, nil
}

func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Me refetches the signed in user and refreshes the cached profile, so a
// role changed by an admin takes effect in the local policy.
func (c *Client) Me(ctx context.Context) (User, error) {
	state, err := c.sessions.Load()
	if err != nil {
		return User{}, fmt.Errorf("c.sessions.Load -> %w", err)
	}
	if state.Token == "" {
		return User{}, ErrUnauthorized
	}

	var user User
	if err := c.get(ctx, "/users/me", &user); err != nil {
		return User{}, err
	}

	state.User = user
	if err := c.sessions.Save(state); err != nil {
		return User{}, fmt.Errorf("c.sessions.Save -> %w", err)
	}

	return user, nil
}

func (c *Client) ChooseRole(ctx context.Context, role Role) (User, error) {
	sess := c.Session()
	if sess.IsZero() {
		return User{}, ErrUnauthorized
	}
	release, err := c.begin("user:choose_role", sess.ActorID)
	if err != nil {
		return User{}, err
	}
	defer release()

	if err := c.do(ctx, http.MethodPatch, "/users/me/role", map[string]string{"role": string(role)}, nil); err != nil {
		return User{}, err
	}

	return c.Me(ctx)
}

func (c *Client) UpdateProfile(ctx context.Context, profile UserProfile) (User, error) {
	if c.Session().IsZero() {
		return User{}, ErrUnauthorized
	}

	body := map[string]*string{
		"name":      profile.Name,
		"photo_url": profile.PhotoURL,
		"address":   profile.Address,
	}
	if err := c.do(ctx, http.MethodPatch, "/users/me", body, nil); err != nil {
		return User{}, err
	}

	return c.Me(ctx)
}

func (c *Client) Stats(ctx context.Context) (UserStats, error) {
	var stats UserStats
	err := c.get(ctx, "/users/me/stats", &stats)

	return stats, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := c.get(ctx, "/leaderboard", &entries)

	return entries, err
}

// SetRole is the admin override of a user's role.
func (c *Client) SetRole(ctx context.Context, userID uint, role Role) (User, error) {
	if _, err := c.authorize(domain.ActionChangeRole, domain.Subject{OwnerID: userID}); err != nil {
		return User{}, err
	}
	release, err := c.begin(domain.ActionChangeRole, userID)
	if err != nil {
		return User{}, err
	}
	defer release()

	var user User
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/role", userID), map[string]string{"role": string(role)}, &user)

	return user, err
}
