// Package auth talks to the account endpoints of the backend.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"shopping-assistant/internal/common/errors"
	httpclient "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

// Client provides login, signup and profile lookups.
type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(transport *httpclient.Client, log logger.Logger) *Client {
	return &Client{http: transport, logger: log}
}

// Login verifies the credentials and returns the user id issued by the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if result := validation.ValidateLogin(email, password); !result.Valid {
		first := result.First()
		return nil, errors.NewInvalidInputError(first.Field, first.Message)
	}

	var resp models.LoginResponse
	err := c.decode(ctx, "auth.login", http.MethodPost, "/login",
		models.LoginRequest{Email: email, Password: password}, validation.SchemaLogin, &resp)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeResourceNotFound) {
			return nil, errors.NewAuthenticationError("unknown account")
		}
		return nil, err
	}
	if resp.UserID == "" {
		return nil, errors.NewAuthenticationError("backend returned no user id")
	}

	c.logger.Info("login succeeded", map[string]interface{}{"userId": resp.UserID.String()})
	return &resp, nil
}

// Signup registers a new account after validating the form locally.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if result := validation.ValidateSignup(req.Email, req.Password, req.Nickname, req.Age, string(req.Sex)); !result.Valid {
		first := result.First()
		return nil, errors.NewInvalidInputError(first.Field, first.Message)
	}

	var resp models.SignupResponse
	err := c.decode(ctx, "auth.signup", http.MethodPost, "/signup", req, validation.SchemaSignup, &resp)
	if err != nil {
		stdErr := errors.As(err)
		switch stdErr.Code {
		case errors.ErrCodeBackendRequestFailed, errors.ErrCodeAuthenticationFailed:
			if !stdErr.Retryable {
				return nil, errors.NewSignupFailedError(stdErr.Details)
			}
		}
		return nil, err
	}
	return &resp, nil
}

// Profile fetches the account view of a user.
func (c *Client) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if !validation.ValidateChatID(userID) {
		return nil, errors.NewInvalidInputError("user_id", "identifier must be alphanumeric, '-' or '_'")
	}
	var profile models.UserProfile
	if err := c.decode(ctx, "auth.profile", http.MethodGet, "/api/v1/user/"+userID, nil, validation.SchemaProfile, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) decode(ctx context.Context, operation, method, path string, body interface{}, schema string, out interface{}) error {
	resp, err := c.http.Do(ctx, operation, method, path, body)
	if err != nil {
		return err
	}
	payload := resp.Body
	if strings.TrimSpace(string(payload)) == "" {
		payload = []byte("{}")
	}
	violations, err := validation.ValidateResponse(schema, payload)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if len(violations) > 0 {
		return errors.NewResponseSchemaInvalidError(path, violations)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.NewResponseDecodeFailedError(path, err)
	}
	return nil
}
