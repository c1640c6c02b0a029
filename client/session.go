package client

import (
	"context"
	"net/http"
)

// Login authenticates with a username (or email) and password and stores the
// returned tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	if err != nil {
		return nil, err
	}
	c.setTokens(&pair)
	return &pair, nil
}

// Register creates an account and stores the returned tokens. On a fresh
// server the first registered account becomes the administrator.
func (c *Client) Register(ctx context.Context, username, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &pair)
	if err != nil {
		return nil, err
	}
	c.setTokens(&pair)
	return &pair, nil
}

// Logout revokes the server-side session and clears local credentials either
// way.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.clearCredentials()
	return err
}

// Me fetches the current account from the server.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetupRequired reports whether the server still needs its first admin
// account.
func (c *Client) SetupRequired(ctx context.Context) (bool, error) {
	var out struct {
		SetupRequired bool `json:"setup_required"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/setup-status", nil, &out); err != nil {
		return false, err
	}
	return out.SetupRequired, nil
}

// ChangePassword changes the password; the server revokes every session, so
// callers should expect to log in again.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}
