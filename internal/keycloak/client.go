// Package keycloak is a minimal admin client for the realm role operations
// the daemon exposes: listing realm roles, assigning and removing them for
// users, and listing role members.
package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pidmr/internal/config"
	"pidmr/internal/logging"
	"pidmr/internal/provider"
)

// Internal realm plumbing that should never surface as an assignable role.
var hiddenRoles = map[string]struct{}{
	"uma_protection":    {},
	"offline_access":    {},
	"uma_authorization": {},
}

// Role is a realm role as reported by the admin API.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Member is a user holding a realm role.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Client talks to the Keycloak admin REST API using the client credentials
// grant. It caches the access token until shortly before expiry.
type Client struct {
	cfg    config.Keycloak
	http   *http.Client
	logger *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New builds a client from the daemon's Keycloak settings. The caller is
// expected to have validated that the settings are complete.
func New(cfg config.Keycloak, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(logging.String("component", "keycloak")),
	}
}

// Roles lists the assignable realm roles, hiding Keycloak's internal ones.
func (c *Client) Roles(ctx context.Context) ([]string, error) {
	var raw []Role
	if err := c.doJSON(ctx, http.MethodGet, c.adminURL("roles"), nil, &raw); err != nil {
		return nil, err
	}

	var roles []string
	defaultRole := "default-roles-" + strings.ToLower(c.cfg.Realm)
	for _, role := range raw {
		if _, hidden := hiddenRoles[role.Name]; hidden || role.Name == defaultRole {
			continue
		}
		roles = append(roles, role.Name)
	}
	return roles, nil
}

// RolesExist verifies every requested role is a known realm role. Missing
// roles are reported together in a single error.
func (c *Client) RolesExist(ctx context.Context, names []string) error {
	known, err := c.Roles(ctx)
	if err != nil {
		return err
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	var missing []string
	for _, name := range names {
		if _, ok := knownSet[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return provider.Wrap(provider.ErrNotFound, "keycloak", "check roles",
			fmt.Sprintf("unknown roles: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// AssignRoles grants realm roles to the user identified by the configured
// user attribute.
func (c *Client) AssignRoles(ctx context.Context, userID string, names []string) error {
	return c.changeRoles(ctx, http.MethodPost, userID, names)
}

// RemoveRoles revokes realm roles from the user identified by the configured
// user attribute.
func (c *Client) RemoveRoles(ctx context.Context, userID string, names []string) error {
	return c.changeRoles(ctx, http.MethodDelete, userID, names)
}

// RoleMembers lists the users holding a realm role.
func (c *Client) RoleMembers(ctx context.Context, name string) ([]Member, error) {
	var members []Member
	err := c.doJSON(ctx, http.MethodGet, c.adminURL("roles", name, "users"), nil, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) changeRoles(ctx context.Context, method, userID string, names []string) error {
	if err := c.RolesExist(ctx, names); err != nil {
		return err
	}

	internalID, err := c.lookupUser(ctx, userID)
	if err != nil {
		return err
	}

	representations := make([]Role, 0, len(names))
	for _, name := range names {
		role, err := c.role(ctx, name)
		if err != nil {
			return err
		}
		representations = append(representations, role)
	}

	body, err := json.Marshal(representations)
	if err != nil {
		return fmt.Errorf("encode role mappings: %w", err)
	}
	return c.doJSON(ctx, method, c.adminURL("users", internalID, "role-mappings", "realm"), body, nil)
}

func (c *Client) role(ctx context.Context, name string) (Role, error) {
	var role Role
	if err := c.doJSON(ctx, http.MethodGet, c.adminURL("roles", name), nil, &role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// lookupUser resolves the external user identifier to Keycloak's internal
// user id via the configured user attribute.
func (c *Client) lookupUser(ctx context.Context, userID string) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s:%s", c.cfg.UserAttribute, userID))
	query.Set("exact", "true")

	var users []struct {
		ID string `json:"id"`
	}
	endpoint := c.adminURL("users") + "?" + query.Encode()
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &users); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", provider.Wrap(provider.ErrNotFound, "keycloak", "lookup user",
			fmt.Sprintf("no user with %s %q", c.cfg.UserAttribute, userID), nil)
	}
	return users[0].ID, nil
}

func (c *Client) adminURL(parts ...string) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, url.PathEscape(part))
	}
	return base + "/admin/realms/" + url.PathEscape(c.cfg.Realm) + "/" + strings.Join(segments, "/")
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("keycloak request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return provider.Wrap(provider.ErrNotFound, "keycloak", "request",
			fmt.Sprintf("%s %s returned 404", method, endpoint), nil)
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("keycloak request %s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// accessToken returns a cached client-credentials token, refreshing it when
// it is within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/realms/" + url.PathEscape(c.cfg.Realm) + "/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	c.logger.Debug("refreshed admin token", logging.Int("expires_in", token.ExpiresIn))
	return c.token, nil
}
