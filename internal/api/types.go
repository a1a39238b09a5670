// Package api defines the JSON payloads exchanged between the daemon's HTTP
// API and its clients.
package api

import (
	"time"

	"pidmr/internal/identify"
	"pidmr/internal/pagination"
	"pidmr/internal/provider"
)

// ErrorResponse is the body returned with every non-2xx status.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ActionPayload describes one resolution action of a provider.
type ActionPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mode string `json:"mode"`
}

// IdentificationRequest asks the daemon to classify a piece of text.
type IdentificationRequest struct {
	Text string `json:"text"`
}

// IdentificationResponse reports the classification of submitted text. Type,
// example and actions are present only for VALID and AMBIGUOUS outcomes.
type IdentificationResponse struct {
	Status  string          `json:"status"`
	Type    string          `json:"type,omitempty"`
	Example string          `json:"example,omitempty"`
	Actions []ActionPayload `json:"actions,omitempty"`
}

// ValidityResponse reports a binary full-match check.
type ValidityResponse struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type,omitempty"`
}

// ProviderPayload is the wire form of a registered provider.
type ProviderPayload struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Example     string          `json:"example,omitempty"`
	Status      string          `json:"status"`
	CreatedBy   string          `json:"created_by,omitempty"`
	Actions     []ActionPayload `json:"actions"`
	Regexes     []string        `json:"regexes"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// ProviderCreateRequest registers a new provider.
type ProviderCreateRequest struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Regexes     []string `json:"regexes"`
}

// ProviderUpdateRequest applies a partial update to a provider. Empty fields
// are left unchanged.
type ProviderUpdateRequest struct {
	Type        string   `json:"type,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Regexes     []string `json:"regexes,omitempty"`
}

// StatusUpdateRequest moves a provider through its review lifecycle.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ProviderListResponse is one page of registered providers.
type ProviderListResponse struct {
	pagination.Meta
	Links   []pagination.Link `json:"links"`
	Content []ProviderPayload `json:"content"`
}

// RoleAssignmentRequest assigns or removes realm roles for a user.
type RoleAssignmentRequest struct {
	Roles []string `json:"roles"`
}

// RoleMemberPayload describes one user holding a realm role.
type RoleMemberPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// StatusResponse reports daemon health.
type StatusResponse struct {
	Running        bool   `json:"running"`
	Version        string `json:"version,omitempty"`
	DBPath         string `json:"db_path"`
	DatabaseExists bool   `json:"database_exists"`
	Readable       bool   `json:"readable"`
	IntegrityOK    bool   `json:"integrity_ok"`
	Providers      int    `json:"providers"`
	Rules          int    `json:"rules"`
	Error          string `json:"error,omitempty"`
}

// ActionsFromModel converts registry actions to their wire form.
func ActionsFromModel(actions []provider.Action) []ActionPayload {
	if len(actions) == 0 {
		return nil
	}
	out := make([]ActionPayload, len(actions))
	for i, action := range actions {
		out[i] = ActionPayload{ID: action.ID, Name: action.Name, Mode: action.Mode}
	}
	return out
}

// IdentificationFromResult converts an identification outcome to its wire
// form.
func IdentificationFromResult(result identify.Result) IdentificationResponse {
	return IdentificationResponse{
		Status:  string(result.Status),
		Type:    result.Type,
		Example: result.Example,
		Actions: ActionsFromModel(result.Actions),
	}
}

// ProviderFromModel converts a registry provider to its wire form.
func ProviderFromModel(p *provider.Provider) ProviderPayload {
	payload := ProviderPayload{
		ID:          p.ID,
		Type:        p.Type,
		Name:        p.Name,
		Description: p.Description,
		Example:     p.Example,
		Status:      string(p.Status),
		CreatedBy:   p.CreatedBy,
		Actions:     ActionsFromModel(p.Actions),
		Regexes:     p.Regexes,
	}
	if !p.CreatedAt.IsZero() {
		payload.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !p.UpdatedAt.IsZero() {
		payload.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}
