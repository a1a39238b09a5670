package testsupport

import (
	"context"
	"testing"

	"pidmr/internal/config"
	"pidmr/internal/provider"
	"pidmr/internal/registry"
)

// MustOpenStore opens a registry store against the test config and closes it
// when the test finishes.
func MustOpenStore(t *testing.T, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// SeedProvider registers a provider and moves it to the requested status.
func SeedProvider(t *testing.T, store *registry.Store, req registry.ProviderRequest, status provider.Status) *provider.Provider {
	t.Helper()

	ctx := context.Background()
	created, err := store.CreateProvider(ctx, req)
	if err != nil {
		t.Fatalf("create provider %q: %v", req.Type, err)
	}
	if status == provider.StatusPending {
		return created
	}
	updated, err := store.SetProviderStatus(ctx, created.ID, status)
	if err != nil {
		t.Fatalf("set provider %q status: %v", req.Type, err)
	}
	return updated
}

// ArkRequest returns a registration for the ARK identifier scheme used
// throughout the tests.
func ArkRequest() registry.ProviderRequest {
	return registry.ProviderRequest{
		Type:        "ark",
		Name:        "Archival Resource Key",
		Description: "Multi-purpose persistent identifiers for information objects.",
		Example:     "ark:/13030/tf5p30086k",
		Actions:     []string{"landingpage", "metadata"},
		Regexes:     []string{`^(a|A)(r|R)(k|K):(?:/\d{5,9})+/[a-zA-Z\d]+(-[a-zA-Z\d]+)*$`},
	}
}

// DOIRequest returns a registration for the DOI identifier scheme.
func DOIRequest() registry.ProviderRequest {
	return registry.ProviderRequest{
		Type:        "doi",
		Name:        "Digital Object Identifier",
		Description: "Persistent identifiers for scholarly outputs.",
		Example:     "doi:10.1000/182",
		Actions:     []string{"landingpage", "metadata", "resource"},
		Regexes:     []string{`^(d|D)(o|O)(i|I):10\.\d+/.+$`},
	}
}
