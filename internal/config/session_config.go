package config

import "time"

const (
	// SessionStoreMemory keeps browser scopes in process memory.
	SessionStoreMemory = "memory"
	// SessionStoreFile keeps browser scopes under the data folder.
	SessionStoreFile = "file"
	// SessionStoreRedis shares browser scopes between frontend instances.
	SessionStoreRedis = "redis"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionStore() string {
	switch store := GetEnv("SESSION_STORE", SessionStoreMemory); store {
	case SessionStoreFile, SessionStoreRedis:
		return store
	default:
		return SessionStoreMemory
	}
}

func (Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Session) GetBrowserCookieName() string {
	return GetEnv("BROWSER_COOKIE", "readify_browser")
}

func (Session) GetMaxSessionAge() time.Duration {
	return getDuration("SESSION_MAX_AGE", 7*24*time.Hour)
}

// GetCredentialKey is a 32 byte key, hex encoded. Empty disables sealing.
func (Session) GetCredentialKey() string {
	return GetEnv("CREDENTIAL_KEY", "")
}
