// Package daemon ties the registry, identification engine and API server
// together into a single long-running process guarded by a lock file.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofrs/flock"

	"pidmr/internal/config"
	"pidmr/internal/identify"
	"pidmr/internal/keycloak"
	"pidmr/internal/logging"
	"pidmr/internal/preflight"
	"pidmr/internal/registry"
	"pidmr/internal/server"
)

// Daemon owns the process-wide resources of a running resolver.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string

	lock   *flock.Flock
	store  *registry.Store
	server *server.Server
}

// New prepares a daemon. Nothing is started until Start.
func New(cfg *config.Config, logger *slog.Logger, version string) *Daemon {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		cfg:     cfg,
		logger:  logger.With(logging.String("component", "daemon")),
		version: version,
	}
}

// Start runs the preflight checks, takes the single-instance lock, opens the
// registry and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if failed := preflight.Failed(preflight.Run(d.cfg)); len(failed) > 0 {
		details := make([]string, len(failed))
		for i, result := range failed {
			details[i] = fmt.Sprintf("%s: %s", result.Name, result.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	d.lock = flock.New(d.cfg.LockFilePath())
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", d.cfg.LockFilePath(), err)
	}
	if !locked {
		return fmt.Errorf("another instance holds %s", d.cfg.LockFilePath())
	}

	store, err := registry.Open(d.cfg)
	if err != nil {
		d.releaseLock()
		return fmt.Errorf("open registry: %w", err)
	}
	d.store = store

	engine := identify.New(store, d.logger)

	var roles server.RoleAdmin
	if d.cfg.Keycloak.Enabled {
		roles = keycloak.New(d.cfg.Keycloak, d.logger)
	}

	d.server = server.New(d.cfg, store, engine, roles, d.logger, d.version)
	if err := d.server.Start(ctx); err != nil {
		d.releaseResources()
		return fmt.Errorf("start api server: %w", err)
	}

	d.logger.Info("daemon started",
		logging.String("version", d.version),
		logging.String("addr", d.server.Addr()),
		logging.String("db", d.cfg.DatabasePath()),
	)
	return nil
}

// Addr reports the API server's bound address.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// Stop shuts down the API server, closes the registry and releases the lock.
func (d *Daemon) Stop(ctx context.Context) error {
	var firstErr error
	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("shutdown api server: %w", err)
		}
		d.server = nil
	}
	d.releaseResources()
	d.logger.Info("daemon stopped")
	return firstErr
}

func (d *Daemon) releaseResources() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("close registry", logging.Error(err))
		}
		d.store = nil
	}
	d.releaseLock()
}

func (d *Daemon) releaseLock() {
	if d.lock == nil {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.lock = nil
}
