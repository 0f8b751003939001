package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLLocalVar    = "API_BASE_URL_LOCAL"
	apiBaseURLDeployVar   = "API_BASE_URL_DEPLOY"
	mediaBaseURLLocalVar  = "MEDIA_BASE_URL_LOCAL"
	mediaBaseURLDeployVar = "MEDIA_BASE_URL_DEPLOY"
	apiTimeoutVar         = "API_TIMEOUT"
)

type API struct {
	EnvVars
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the local API in development and the deployed API everywhere else.
func (a API) GetAPIBaseURL() string {
	if a.IsDevelopment() {
		return trimSlash(GetEnv(apiBaseURLLocalVar, "http://127.0.0.1:8000/api"))
	}
	return trimSlash(GetEnv(apiBaseURLDeployVar, "https://readify-api.onrender.com/api"))
}

// GetMediaBaseURL is the origin that relative cover image and book file paths resolve against.
func (a API) GetMediaBaseURL() string {
	if a.IsDevelopment() {
		return trimSlash(GetEnv(mediaBaseURLLocalVar, "http://127.0.0.1:8000"))
	}
	return trimSlash(GetEnv(mediaBaseURLDeployVar, "https://readify-api.onrender.com"))
}

func (API) GetAPITimeout() time.Duration {
	return getDuration(apiTimeoutVar, 30*time.Second)
}

func trimSlash(url string) string {
	return strings.TrimRight(url, "/")
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
