package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pidmr/internal/api"
	"pidmr/internal/config"
	"pidmr/internal/identify"
	"pidmr/internal/keycloak"
	"pidmr/internal/logging"
	"pidmr/internal/provider"
	"pidmr/internal/registry"
	"pidmr/internal/server"
	"pidmr/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	store  *registry.Store
	client *http.Client
	base   string
}

func newFixture(t *testing.T, roles server.RoleAdmin) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := identify.New(store, logging.NewNop())
	srv := server.New(cfg, store, engine, roles, logging.NewNop(), "test")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{cfg: cfg, store: store, client: ts.Client(), base: ts.URL}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.base+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if f.cfg.Server.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Server.Token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestIdentifyEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)

	resp, raw := f.do(t, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: "ark:/13030/tf5p30086k"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	result := decode[api.IdentificationResponse](t, raw)
	if result.Status != "VALID" || result.Type != "ark" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Actions) != 2 {
		t.Fatalf("expected provider actions, got %+v", result.Actions)
	}

	resp, raw = f.do(t, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: "ark:/13030/"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result = decode[api.IdentificationResponse](t, raw)
	if result.Status != "AMBIGUOUS" {
		t.Fatalf("expected ambiguous, got %+v", result)
	}

	resp, raw = f.do(t, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: "nothing"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result = decode[api.IdentificationResponse](t, raw)
	if result.Status != "INVALID" || result.Type != "" {
		t.Fatalf("expected bare invalid, got %+v", result)
	}
}

func TestValidateEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)

	resp, raw := f.do(t, http.MethodGet, "/v1/validate?pid=ark:%2F13030%2Ftf5p30086k", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	validity := decode[api.ValidityResponse](t, raw)
	if !validity.Valid || validity.Type != "ark" {
		t.Fatalf("unexpected validity: %+v", validity)
	}

	resp, _ = f.do(t, http.MethodGet, "/v1/validate", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without pid, got %d", resp.StatusCode)
	}

	resp, raw = f.do(t, http.MethodGet, "/v1/validate?pid=whatever&type=urn", nil)
	if resp.StatusCode != http.StatusNotAcceptable {
		t.Fatalf("expected 406 for unsupported type, got %d: %s", resp.StatusCode, raw)
	}
	errResp := decode[api.ErrorResponse](t, raw)
	if errResp.Code != http.StatusNotAcceptable {
		t.Fatalf("expected error code in body, got %+v", errResp)
	}
}

func TestResolveEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)

	resp, raw := f.do(t, http.MethodGet, "/v1/resolve?pid=ark:%2F13030%2Ftf5p30086k", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	payload := decode[api.ProviderPayload](t, raw)
	if payload.Type != "ark" || payload.Name != "Archival Resource Key" {
		t.Fatalf("unexpected provider: %+v", payload)
	}

	resp, _ = f.do(t, http.MethodGet, "/v1/resolve?pid=not-a-pid", nil)
	if resp.StatusCode != http.StatusNotAcceptable {
		t.Fatalf("expected 406 for unresolvable pid, got %d", resp.StatusCode)
	}
}

func TestProviderLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	resp, raw := f.do(t, http.MethodPost, "/v1/providers", api.ProviderCreateRequest{
		Type:    "hdl",
		Name:    "Handle",
		Actions: []string{"landingpage"},
		Regexes: []string{`^hdl:\d+/.+$`},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}
	created := decode[api.ProviderPayload](t, raw)
	if created.Status != "pending" {
		t.Fatalf("expected pending, got %+v", created)
	}

	// A pending provider is registered but not identifiable.
	resp, raw = f.do(t, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: "hdl:11500/abc"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result := decode[api.IdentificationResponse](t, raw); result.Status != "INVALID" {
		t.Fatalf("expected pending provider to be inert, got %+v", result)
	}

	resp, raw = f.do(t, http.MethodPut, fmt.Sprintf("/v1/providers/%d/status", created.ID), api.StatusUpdateRequest{Status: "approved"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if approved := decode[api.ProviderPayload](t, raw); approved.Status != "approved" {
		t.Fatalf("expected approved, got %+v", approved)
	}

	resp, raw = f.do(t, http.MethodPost, "/v1/identify", api.IdentificationRequest{Text: "hdl:11500/abc"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result := decode[api.IdentificationResponse](t, raw); result.Status != "VALID" || result.Type != "hdl" {
		t.Fatalf("expected approved provider to identify, got %+v", result)
	}

	resp, raw = f.do(t, http.MethodPatch, fmt.Sprintf("/v1/providers/%d", created.ID), api.ProviderUpdateRequest{Name: "Handle System"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	updated := decode[api.ProviderPayload](t, raw)
	if updated.Name != "Handle System" || updated.Status != "pending" {
		t.Fatalf("expected update to reset status, got %+v", updated)
	}

	resp, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/v1/providers/%d", created.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, fmt.Sprintf("/v1/providers/%d", created.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestProviderErrorStatuses(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{
			name:   "duplicate type",
			method: http.MethodPost,
			path:   "/v1/providers",
			body:   api.ProviderCreateRequest{Type: "ark", Name: "dup", Regexes: []string{"^a$"}},
			want:   http.StatusConflict,
		},
		{
			name:   "malformed regex",
			method: http.MethodPost,
			path:   "/v1/providers",
			body:   api.ProviderCreateRequest{Type: "x", Name: "x", Regexes: []string{"[0-9"}},
			want:   http.StatusBadRequest,
		},
		{
			name:   "unknown action",
			method: http.MethodPost,
			path:   "/v1/providers",
			body:   api.ProviderCreateRequest{Type: "x", Name: "x", Actions: []string{"warp"}, Regexes: []string{"^a$"}},
			want:   http.StatusNotFound,
		},
		{
			name:   "missing provider",
			method: http.MethodPatch,
			path:   "/v1/providers/999",
			body:   api.ProviderUpdateRequest{Name: "missing"},
			want:   http.StatusNotFound,
		},
		{
			name:   "bad id",
			method: http.MethodGet,
			path:   "/v1/providers/abc",
			want:   http.StatusBadRequest,
		},
		{
			name:   "bad page",
			method: http.MethodGet,
			path:   "/v1/providers?page=0",
			want:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := f.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.StatusCode, raw)
			}
			errResp := decode[api.ErrorResponse](t, raw)
			if errResp.Code != tt.want || errResp.Message == "" {
				t.Fatalf("expected error body, got %+v", errResp)
			}
		})
	}
}

func TestProviderListPagination(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)
	testsupport.SeedProvider(t, f.store, testsupport.DOIRequest(), provider.StatusPending)

	resp, raw := f.do(t, http.MethodGet, "/v1/providers?page=1&size=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	page := decode[api.ProviderListResponse](t, raw)
	if page.TotalElements != 2 || page.TotalPages != 2 {
		t.Fatalf("unexpected meta: %+v", page.Meta)
	}
	if len(page.Content) != 1 || page.Content[0].Type != "ark" {
		t.Fatalf("unexpected content: %+v", page.Content)
	}

	rels := map[string]bool{}
	for _, link := range page.Links {
		rels[link.Rel] = true
	}
	if !rels["self"] || !rels["next"] || !rels["last"] {
		t.Fatalf("expected navigation links, got %+v", page.Links)
	}
}

func TestActionsEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	resp, raw := f.do(t, http.MethodGet, "/v1/actions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	actions := decode[[]api.ActionPayload](t, raw)
	if len(actions) != 3 {
		t.Fatalf("expected 3 seeded actions, got %+v", actions)
	}

	resp, raw = f.do(t, http.MethodGet, "/v1/actions/modes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	modes := decode[[]string](t, raw)
	if len(modes) != 3 {
		t.Fatalf("expected 3 modes, got %+v", modes)
	}
}

func TestAuthTokenRequired(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Server.Token = "sekrit"

	req, err := http.NewRequest(http.MethodPost, f.base+"/v1/providers", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Read endpoints stay open.
	resp, _ = f.do(t, http.MethodGet, "/v1/actions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected open read endpoint, got %d", resp.StatusCode)
	}
}

func TestRolesDisabled(t *testing.T) {
	f := newFixture(t, nil)

	resp, raw := f.do(t, http.MethodGet, "/v1/roles", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with roles disabled, got %d: %s", resp.StatusCode, raw)
	}
}

// stubRoles satisfies RoleAdmin in memory.
type stubRoles struct {
	assigned map[string][]string
}

func (s *stubRoles) Roles(ctx context.Context) ([]string, error) {
	return []string{"provider_admin"}, nil
}

func (s *stubRoles) AssignRoles(ctx context.Context, userID string, names []string) error {
	s.assigned[userID] = append(s.assigned[userID], names...)
	return nil
}

func (s *stubRoles) RemoveRoles(ctx context.Context, userID string, names []string) error {
	delete(s.assigned, userID)
	return nil
}

func (s *stubRoles) RoleMembers(ctx context.Context, name string) ([]keycloak.Member, error) {
	return []keycloak.Member{{ID: "u-1", Username: "curator"}}, nil
}

func TestRoleEndpoints(t *testing.T) {
	roles := &stubRoles{assigned: map[string][]string{}}
	f := newFixture(t, roles)

	resp, raw := f.do(t, http.MethodGet, "/v1/roles", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if listed := decode[[]string](t, raw); len(listed) != 1 || listed[0] != "provider_admin" {
		t.Fatalf("unexpected roles: %+v", listed)
	}

	resp, _ = f.do(t, http.MethodPut, "/v1/users/curator@example.org/roles", api.RoleAssignmentRequest{Roles: []string{"provider_admin"}})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := roles.assigned["curator@example.org"]; len(got) != 1 {
		t.Fatalf("expected assignment recorded, got %v", got)
	}

	resp, _ = f.do(t, http.MethodPut, "/v1/users/curator@example.org/roles", api.RoleAssignmentRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty roles, got %d", resp.StatusCode)
	}

	resp, raw = f.do(t, http.MethodGet, "/v1/roles/provider_admin/members", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if members := decode[[]api.RoleMemberPayload](t, raw); len(members) != 1 || members[0].Username != "curator" {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.SeedProvider(t, f.store, testsupport.ArkRequest(), provider.StatusApproved)

	resp, raw := f.do(t, http.MethodGet, "/v1/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	status := decode[api.StatusResponse](t, raw)
	if !status.Running || !status.IntegrityOK || status.Providers != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}
