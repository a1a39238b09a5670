package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"pidmr/internal/client"
	"pidmr/internal/identify"
	"pidmr/internal/logging"
	"pidmr/internal/provider"
	"pidmr/internal/server"
	"pidmr/internal/testsupport"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedProvider(t, store, testsupport.ArkRequest(), provider.StatusApproved)

	engine := identify.New(store, logging.NewNop())
	srv := server.New(cfg, store, engine, nil, logging.NewNop(), "test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return client.New(ts.URL, "")
}

func TestClientIdentify(t *testing.T) {
	c := newClient(t)

	result, err := c.Identify(context.Background(), "ark:/13030/tf5p30086k")
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if result.Status != "VALID" || result.Type != "ark" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClientValidateForType(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	validity, err := c.Validate(ctx, "ark:/13030/tf5p30086k", "ark")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !validity.Valid {
		t.Fatalf("expected valid, got %+v", validity)
	}

	_, err = c.Validate(ctx, "whatever", "urn")
	if !errors.Is(err, provider.ErrNotAcceptable) {
		t.Fatalf("expected not acceptable sentinel from API error, got %v", err)
	}
}

func TestClientErrorSentinels(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.GetProvider(ctx, 999)
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != 404 || apiErr.Message == "" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClientProviderRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	listed, err := c.ListProviders(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list providers: %v", err)
	}
	if listed.TotalElements != 1 || len(listed.Content) != 1 {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	fetched, err := c.GetProvider(ctx, listed.Content[0].ID)
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	if fetched.Type != "ark" {
		t.Fatalf("unexpected provider: %+v", fetched)
	}
}
