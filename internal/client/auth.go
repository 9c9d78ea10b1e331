package client

import (
	"context"

	"github.com/mlefevre/amicale-client/internal/models"
)

// ConfigInfo is the backend's anonymous bootstrap payload.
type ConfigInfo struct {
	Version         string `json:"version"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Config fetches the backend bootstrap payload. As a side effect the
// backend plants the csrftoken cookie, so this is also how a fresh
// client arms itself for its first mutation.
func (c *Client) Config(ctx context.Context) (*ConfigInfo, error) {
	var info ConfigInfo
	if err := c.get(ctx, "/api/config/", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ensureCSRF makes sure the jar holds a csrftoken before a mutation
// that precedes any authenticated GET (register, login).
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	_, err := c.Config(ctx)
	return err
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := c.ensureCSRF(ctx); err != nil {
		return nil, err
	}
	var user models.User
	err := c.post(ctx, "/api/auth/register/", input, &user,
		[]string{"email", "password", "first_name", "last_name"})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := c.ensureCSRF(ctx); err != nil {
		return nil, err
	}
	body := map[string]string{"email": email, "password": password}
	var user models.User
	if err := c.post(ctx, "/api/auth/login/", body, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout/", nil, nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/api/user/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
