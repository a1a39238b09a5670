// Package client is the HTTP client the command line tool uses to talk to
// the daemon's API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pidmr/internal/api"
	"pidmr/internal/provider"
)

// Client talks to a running daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the daemon at baseURL. The token may be empty for
// open deployments.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("daemon returned status %d", e.Status)
}

// Unwrap maps API statuses back onto the domain sentinels so callers can use
// errors.Is on client results.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return provider.ErrValidation
	case http.StatusNotFound:
		return provider.ErrNotFound
	case http.StatusNotAcceptable:
		return provider.ErrNotAcceptable
	case http.StatusConflict:
		return provider.ErrConflict
	default:
		return nil
	}
}

// Identify classifies a piece of text.
func (c *Client) Identify(ctx context.Context, text string) (api.IdentificationResponse, error) {
	var out api.IdentificationResponse
	err := c.do(ctx, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: text}, &out)
	return out, err
}

// Validate checks whether a PID fully matches any approved rule. When
// providerType is non-empty only that provider's rules are consulted.
func (c *Client) Validate(ctx context.Context, pid, providerType string) (api.ValidityResponse, error) {
	query := url.Values{}
	query.Set("pid", pid)
	if providerType != "" {
		query.Set("type", providerType)
	}
	var out api.ValidityResponse
	err := c.do(ctx, http.MethodGet, "/v1/validate?"+query.Encode(), nil, &out)
	return out, err
}

// Resolve returns the provider backing a valid PID.
func (c *Client) Resolve(ctx context.Context, pid string) (api.ProviderPayload, error) {
	query := url.Values{}
	query.Set("pid", pid)
	var out api.ProviderPayload
	err := c.do(ctx, http.MethodGet, "/v1/resolve?"+query.Encode(), nil, &out)
	return out, err
}

// ListProviders fetches one page of registered providers.
func (c *Client) ListProviders(ctx context.Context, page, size int) (api.ProviderListResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}
	path := "/v1/providers"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out api.ProviderListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// GetProvider fetches a provider by id.
func (c *Client) GetProvider(ctx context.Context, id int64) (api.ProviderPayload, error) {
	var out api.ProviderPayload
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/providers/%d", id), nil, &out)
	return out, err
}

// CreateProvider registers a new provider.
func (c *Client) CreateProvider(ctx context.Context, req api.ProviderCreateRequest) (api.ProviderPayload, error) {
	var out api.ProviderPayload
	err := c.do(ctx, http.MethodPost, "/v1/providers", req, &out)
	return out, err
}

// UpdateProvider applies a partial update.
func (c *Client) UpdateProvider(ctx context.Context, id int64, req api.ProviderUpdateRequest) (api.ProviderPayload, error) {
	var out api.ProviderPayload
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/providers/%d", id), req, &out)
	return out, err
}

// DeleteProvider removes a provider.
func (c *Client) DeleteProvider(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/providers/%d", id), nil, nil)
}

// SetProviderStatus moves a provider through its review lifecycle.
func (c *Client) SetProviderStatus(ctx context.Context, id int64, status string) (api.ProviderPayload, error) {
	var out api.ProviderPayload
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/providers/%d/status", id), api.StatusUpdateRequest{Status: status}, &out)
	return out, err
}

// Actions lists the known resolution actions.
func (c *Client) Actions(ctx context.Context) ([]api.ActionPayload, error) {
	var out []api.ActionPayload
	err := c.do(ctx, http.MethodGet, "/v1/actions", nil, &out)
	return out, err
}

// ResolutionModes lists the distinct action modes.
func (c *Client) ResolutionModes(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/v1/actions/modes", nil, &out)
	return out, err
}

// Roles lists assignable realm roles.
func (c *Client) Roles(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/v1/roles", nil, &out)
	return out, err
}

// AssignRoles grants realm roles to a user.
func (c *Client) AssignRoles(ctx context.Context, userID string, roles []string) error {
	return c.do(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(userID)+"/roles", api.RoleAssignmentRequest{Roles: roles}, nil)
}

// RemoveRoles revokes realm roles from a user.
func (c *Client) RemoveRoles(ctx context.Context, userID string, roles []string) error {
	return c.do(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(userID)+"/roles", api.RoleAssignmentRequest{Roles: roles}, nil)
}

// RoleMembers lists the users holding a realm role.
func (c *Client) RoleMembers(ctx context.Context, role string) ([]api.RoleMemberPayload, error) {
	var out []api.RoleMemberPayload
	err := c.do(ctx, http.MethodGet, "/v1/roles/"+url.PathEscape(role)+"/members", nil, &out)
	return out, err
}

// Status reports daemon health.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
