package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pidmr/internal/api"
	"pidmr/internal/identify"
	"pidmr/internal/logging"
	"pidmr/internal/pagination"
	"pidmr/internal/provider"
	"pidmr/internal/registry"
)

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req api.IdentificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be JSON with a text field")
		return
	}

	result, err := s.engine.Identify(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.IdentificationFromResult(result))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	pid := r.URL.Query().Get("pid")
	if pid == "" {
		writeErrorMessage(w, http.StatusBadRequest, "pid query parameter is required")
		return
	}

	var (
		validity identify.Validity
		err      error
	)
	if providerType := r.URL.Query().Get("type"); providerType != "" {
		validity, err = s.engine.ValidateForType(r.Context(), pid, providerType)
	} else {
		validity, err = s.engine.Validate(r.Context(), pid)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ValidityResponse{Valid: validity.Valid, Type: validity.Type})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	pid := r.URL.Query().Get("pid")
	if pid == "" {
		writeErrorMessage(w, http.StatusBadRequest, "pid query parameter is required")
		return
	}

	resolved, err := s.engine.Resolve(r.Context(), pid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProviderFromModel(resolved))
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.Parse(r.URL.Query(), s.cfg.Server.DefaultPageSize, s.cfg.Server.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	providers, total, err := s.store.ListProviders(r.Context(), params.Offset(), params.Size)
	if err != nil {
		s.writeError(w, err)
		return
	}

	content := make([]api.ProviderPayload, 0, len(providers))
	for _, p := range providers {
		content = append(content, api.ProviderFromModel(p))
	}
	meta := pagination.NewMeta(params, len(content), total)
	writeJSON(w, http.StatusOK, api.ProviderListResponse{
		Meta:    meta,
		Links:   pagination.Links(r.URL, params, meta),
		Content: content,
	})
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProviderByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p == nil {
		writeErrorMessage(w, http.StatusNotFound, "provider not found")
		return
	}
	writeJSON(w, http.StatusOK, api.ProviderFromModel(p))
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req api.ProviderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be a JSON provider registration")
		return
	}

	created, err := s.store.CreateProvider(r.Context(), registry.ProviderRequest{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Example:     req.Example,
		CreatedBy:   req.CreatedBy,
		Actions:     req.Actions,
		Regexes:     req.Regexes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.ProviderFromModel(created))
}

func (s *Server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req api.ProviderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be a JSON provider update")
		return
	}

	updated, err := s.store.UpdateProvider(r.Context(), id, registry.ProviderUpdate{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Example:     req.Example,
		Actions:     req.Actions,
		Regexes:     req.Regexes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProviderFromModel(updated))
}

func (s *Server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	removed, err := s.store.DeleteProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !removed {
		writeErrorMessage(w, http.StatusNotFound, "provider not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProviderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req api.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be a JSON status update")
		return
	}
	status, ok := provider.ParseStatus(req.Status)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "unknown status "+strconv.Quote(req.Status))
		return
	}

	updated, err := s.store.SetProviderStatus(r.Context(), id, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProviderFromModel(updated))
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.store.ListActions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ActionsFromModel(actions))
}

func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	modes, err := s.store.ResolutionModes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modes)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if !s.rolesEnabled(w) {
		return
	}
	roles, err := s.roles.Roles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *Server) handleAssignRoles(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, s.assign)
}

func (s *Server) handleRemoveRoles(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, s.remove)
}

func (s *Server) assign(r *http.Request, userID string, roles []string) error {
	return s.roles.AssignRoles(r.Context(), userID, roles)
}

func (s *Server) remove(r *http.Request, userID string, roles []string) error {
	return s.roles.RemoveRoles(r.Context(), userID, roles)
}

func (s *Server) handleRoleChange(w http.ResponseWriter, r *http.Request, apply func(*http.Request, string, []string) error) {
	if !s.rolesEnabled(w) {
		return
	}
	userID := r.PathValue("id")
	var req api.RoleAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be JSON with a roles array")
		return
	}
	if len(req.Roles) == 0 {
		writeErrorMessage(w, http.StatusBadRequest, "at least one role is required")
		return
	}
	if err := apply(r, userID, req.Roles); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoleMembers(w http.ResponseWriter, r *http.Request) {
	if !s.rolesEnabled(w) {
		return
	}
	members, err := s.roles.RoleMembers(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := make([]api.RoleMemberPayload, 0, len(members))
	for _, member := range members {
		payload = append(payload, api.RoleMemberPayload{
			ID:       member.ID,
			Username: member.Username,
			Email:    member.Email,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.store.CheckHealth(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:        true,
		Version:        s.version,
		DBPath:         health.DBPath,
		DatabaseExists: health.DatabaseExists,
		Readable:       health.Readable,
		IntegrityOK:    health.IntegrityOK,
		Providers:      health.Providers,
		Rules:          health.Rules,
		Error:          health.Error,
	})
}

func (s *Server) rolesEnabled(w http.ResponseWriter) bool {
	if s.roles == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, "role management is disabled")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeErrorMessage(w, http.StatusBadRequest, "provider id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Code: status, Message: message})
}

// writeError maps domain sentinels onto HTTP statuses. Unrecognized errors
// are logged and reported as 500 without leaking internals.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, provider.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, provider.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrTypeNotSupported), errors.Is(err, provider.ErrNotAcceptable):
		status = http.StatusNotAcceptable
	case errors.Is(err, provider.ErrConflict):
		status = http.StatusConflict
	default:
		s.logger.Error("request failed", logging.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeErrorMessage(w, status, strings.TrimSpace(err.Error()))
}
