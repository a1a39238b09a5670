package daemon_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"pidmr/internal/daemon"
	"pidmr/internal/logging"
	"pidmr/internal/testsupport"
)

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := daemon.New(cfg, logging.NewNop(), "test")

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + d.Addr() + "/v1/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from status endpoint, got %d", resp.StatusCode)
	}

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop daemon: %v", err)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first := daemon.New(cfg, logging.NewNop(), "test")
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start first instance: %v", err)
	}
	defer func() {
		if err := first.Stop(ctx); err != nil {
			t.Errorf("stop first instance: %v", err)
		}
	}()

	// A second instance must refuse to start while the lock is held.
	second := daemon.New(cfg, logging.NewNop(), "test")
	err := second.Start(ctx)
	if err == nil {
		_ = second.Stop(ctx)
		t.Fatal("expected second instance to fail")
	}
	if !strings.Contains(err.Error(), "another instance") {
		t.Fatalf("expected lock error, got %v", err)
	}
}
