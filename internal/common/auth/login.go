// Package auth talks to the admin login endpoint.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"casting-admin/internal/common/errors"
	commonhttp "casting-admin/internal/common/http"
	"casting-admin/internal/common/validation"
	"casting-admin/internal/models"
)

// LoginPath is relative to the billing host.
const LoginPath = "admin/login"

type AdminAuthClient struct {
	baseURL    string
	httpClient *commonhttp.Client
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token   string
	AdminID string
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Result  struct {
		AdminID interface{} `json:"AdminId"`
		ID      interface{} `json:"id"`
		Token   string      `json:"token"`
	} `json:"result"`
}

func NewAdminAuthClient(baseURL string, httpClient *commonhttp.Client) *AdminAuthClient {
	return &AdminAuthClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a bearer token. Every failure is an AUTH_FAILED
// error carrying the server message when one was sent.
func (a *AdminAuthClient) Login(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	fieldErrs, err := validation.Struct(creds)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if len(fieldErrs) > 0 {
		return nil, errors.NewValidationError(fieldErrs)
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	loginURL := fmt.Sprintf("%s/%s", a.baseURL, LoginPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to create login request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		authErr := errors.NewAuthError("An error occurred during the request")
		authErr.Details = err.Error()
		authErr.Err = err
		return nil, authErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAuthError("An error occurred during the request")
	}

	var parsed loginResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := errors.NewAuthError(parsed.Message)
		authErr.Status = resp.StatusCode
		return nil, authErr
	}
	if decodeErr != nil {
		return nil, errors.NewAuthError("Login failed")
	}

	result := &LoginResult{
		Token:   parsed.Result.Token,
		AdminID: models.ToString(parsed.Result.AdminID),
	}
	if result.Token == "" {
		result.Token = parsed.Token
	}
	if result.AdminID == "" {
		result.AdminID = models.ToString(parsed.Result.ID)
	}
	if result.Token == "" || result.AdminID == "" {
		return nil, errors.NewAuthError("Login failed")
	}
	return result, nil
}
