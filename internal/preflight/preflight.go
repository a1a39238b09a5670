// Package preflight verifies the environment before the daemon starts:
// directory permissions, bind address availability, and Keycloak settings.
package preflight

import (
	"fmt"
	"net"
	"net/url"
	"os"

	"golang.org/x/sys/unix"

	"pidmr/internal/config"
)

// Result is the outcome of one environment check.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// Run executes every check against the configuration. It always returns the
// full list so failures can be reported together.
func Run(cfg *config.Config) []Result {
	results := []Result{
		checkDirectory("data directory", cfg.Paths.DataDir),
		checkDirectory("log directory", cfg.Paths.LogDir),
		checkBind(cfg.Server.Bind),
	}
	if cfg.Keycloak.Enabled {
		results = append(results, checkKeycloak(cfg.Keycloak))
	}
	return results
}

// Failed filters the results down to the failing checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.OK {
			failed = append(failed, result)
		}
	}
	return failed
}

func checkDirectory(name, dir string) Result {
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %v", dir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not a directory", dir)}
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not read-write accessible: %v", dir, err)}
	}
	return Result{Name: name, OK: true, Detail: dir}
}

func checkBind(bind string) Result {
	const name = "bind address"
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %v", bind, err)}
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not bindable: %v", bind, err)}
	}
	_ = listener.Close()
	return Result{Name: name, OK: true, Detail: bind}
}

func checkKeycloak(kc config.Keycloak) Result {
	const name = "keycloak settings"
	parsed, err := url.Parse(kc.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("base url %q is not absolute", kc.BaseURL)}
	}
	if kc.Realm == "" || kc.ClientID == "" || kc.ClientSecret == "" {
		return Result{Name: name, Detail: "realm, client id and client secret are required"}
	}
	return Result{Name: name, OK: true, Detail: kc.BaseURL}
}
