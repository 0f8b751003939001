package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	IsDevelopment() bool
}

// APIConfig selects the remote Readify API for the active deployment environment.
type APIConfig interface {
	GetAPIBaseURL() string
	GetMediaBaseURL() string
	GetAPITimeout() time.Duration
}

type SessionConfig interface {
	GetSessionStore() string
	GetRedisURL() string
	GetBrowserCookieName() string
	GetMaxSessionAge() time.Duration
	GetCredentialKey() string
}

type mainConfig struct {
	EnvVars
	API
	Session
}

func New() Config {
	return mainConfig{}
}
