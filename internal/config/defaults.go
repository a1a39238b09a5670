package config

const (
	defaultDataDir           = "~/.local/share/pidmr"
	defaultLogDir            = "~/.local/share/pidmr/logs"
	defaultServerBind        = "127.0.0.1:7465"
	defaultPageSize          = 10
	defaultMaxPageSize       = 100
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultUserAttribute     = "voperson_id"
	defaultKeycloakTimeout   = 15
	defaultKeycloakUserRealm = "pidmr"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:            defaultServerBind,
			DefaultPageSize: defaultPageSize,
			MaxPageSize:     defaultMaxPageSize,
		},
		Keycloak: Keycloak{
			Realm:         defaultKeycloakUserRealm,
			UserAttribute: defaultUserAttribute,
			TimeoutSecs:   defaultKeycloakTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
