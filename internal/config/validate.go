package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Token = strings.TrimSpace(c.Server.Token)

	c.Keycloak.BaseURL = strings.TrimRight(strings.TrimSpace(c.Keycloak.BaseURL), "/")
	c.Keycloak.Realm = strings.TrimSpace(c.Keycloak.Realm)
	c.Keycloak.ClientID = strings.TrimSpace(c.Keycloak.ClientID)
	c.Keycloak.UserAttribute = strings.TrimSpace(c.Keycloak.UserAttribute)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateKeycloak(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not a host:port address: %w", c.Server.Bind, err)
	}
	if c.Server.DefaultPageSize <= 0 {
		return errors.New("server.default_page_size must be positive")
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		return errors.New("server.max_page_size must be at least server.default_page_size")
	}
	return nil
}

func (c *Config) validateKeycloak() error {
	if !c.Keycloak.Enabled {
		return nil
	}
	if c.Keycloak.BaseURL == "" {
		return errors.New("keycloak.base_url must be set when keycloak.enabled is true")
	}
	if c.Keycloak.Realm == "" {
		return errors.New("keycloak.realm must be set when keycloak.enabled is true")
	}
	if c.Keycloak.ClientID == "" {
		return errors.New("keycloak.client_id must be set when keycloak.enabled is true")
	}
	if strings.TrimSpace(c.Keycloak.ClientSecret) == "" {
		return errors.New("keycloak.client_secret must be set when keycloak.enabled is true")
	}
	if c.Keycloak.TimeoutSecs <= 0 {
		return errors.New("keycloak.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
