package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/session"
)

type loginResponse struct {
	Token       string   `json:"token"`
	AccessToken string   `json:"access_token"`
	User        userWire `json:"user"`
	Data        *struct {
		Token       string   `json:"token"`
		AccessToken string   `json:"access_token"`
		User        userWire `json:"user"`
	} `json:"data"`
}

// Authenticate exchanges credentials for a token without touching the
// session store.
func (c *Client) Authenticate(ctx context.Context, email, password string) (session.Auth, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return session.Auth{}, err
	}
	token, user := resp.Token, resp.User
	if resp.Data != nil {
		token = firstNonEmpty(token, resp.Data.Token, resp.Data.AccessToken)
		if user.ID == 0 {
			user = resp.Data.User
		}
	}
	token = firstNonEmpty(token, resp.AccessToken)
	if token == "" {
		return session.Auth{}, errors.New("api: login response carried no token")
	}
	return session.Auth{User: user.entity(), Token: token, IsAuthenticated: true}, nil
}

// Login authenticates and persists the auth slice.
func (c *Client) Login(ctx context.Context, email, password string) (session.Auth, error) {
	auth, err := c.Authenticate(ctx, email, password)
	if err != nil {
		return session.Auth{}, err
	}
	if err := c.sessions.Save(ctx, auth); err != nil {
		return session.Auth{}, err
	}
	c.logger.Info("signed in", slog.Int64("user_id", auth.User.ID), slog.String("role", string(auth.User.Role)))
	return auth, nil
}

// SignOut revokes the token scoped to ctx on the backend. The store is left
// alone.
func (c *Client) SignOut(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Logout notifies the backend and always clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if session.Token(ctx, c.sessions) != "" {
		callErr = c.SignOut(ctx)
		if callErr != nil {
			c.logger.Warn("logout call failed", slog.Any("error", callErr))
		}
	}
	if err := c.sessions.Clear(ctx); err != nil {
		return err
	}
	var apiErr *Error
	if errors.As(callErr, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil
	}
	return callErr
}

// CurrentUser returns the user owning the token in use.
func (c *Client) CurrentUser(ctx context.Context) (entity.User, error) {
	var w userWire
	if err := c.getJSON(ctx, "/auth/me", nil, &wrapped[userWire]{target: &w}); err != nil {
		return entity.User{}, err
	}
	return w.entity(), nil
}

// Me refreshes the signed-in user from the backend.
func (c *Client) Me(ctx context.Context) (session.Auth, error) {
	auth, err := c.sessions.Load(ctx)
	if err != nil {
		return session.Auth{}, err
	}
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return session.Auth{}, err
	}
	auth.User = user
	if err := c.sessions.Save(ctx, auth); err != nil {
		return session.Auth{}, err
	}
	return auth, nil
}
