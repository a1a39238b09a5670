package preflight_test

import (
	"path/filepath"
	"testing"

	"pidmr/internal/preflight"
	"pidmr/internal/testsupport"
)

func TestRunHealthyEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := preflight.Run(cfg)
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestRunMissingDataDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DataDir = filepath.Join(cfg.Paths.DataDir, "does-not-exist")

	failed := preflight.Failed(preflight.Run(cfg))
	if len(failed) != 1 || failed[0].Name != "data directory" {
		t.Fatalf("expected data directory failure, got %+v", failed)
	}
}

func TestRunBadBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Bind = "not-an-address"

	failed := preflight.Failed(preflight.Run(cfg))
	if len(failed) != 1 || failed[0].Name != "bind address" {
		t.Fatalf("expected bind failure, got %+v", failed)
	}
}

func TestRunKeycloakSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Keycloak.Enabled = true
	cfg.Keycloak.BaseURL = "not a url"

	failed := preflight.Failed(preflight.Run(cfg))
	if len(failed) != 1 || failed[0].Name != "keycloak settings" {
		t.Fatalf("expected keycloak failure, got %+v", failed)
	}
}
