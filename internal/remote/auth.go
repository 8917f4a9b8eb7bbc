package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"arabic-chatbot.app/internal/models"
)

var ErrEmptyToken = errors.New("remote: login response has no access token")

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	const op = "remote.Login"

	var res models.LoginResult
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/login",
		path:   "/login",
		body:   map[string]string{"email": email, "password": password},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}
	return &res, nil
}

// Signup creates an account. New accounts are never admins.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) error {
	const op = "remote.Signup"

	req.IsAdmin = false
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/signup",
		path:   "/signup",
		body:   req,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, token, userID string) (*models.Profile, error) {
	const op = "remote.GetUser"

	var profile models.Profile
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		route:  "/users/{id}",
		path:   "/users/" + url.PathEscape(userID),
		token:  token,
	}, &profile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}

// SetLanguage forwards the interface language preference.
func (c *Client) SetLanguage(ctx context.Context, token string, lang models.Language) error {
	const op = "remote.SetLanguage"

	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/language",
		path:   "/language",
		token:  token,
		body:   map[string]string{"language": string(lang)},
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
