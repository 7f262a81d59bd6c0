package constants

import "time"

const (
	// UpstreamStreamTimeout enforces max duration for streaming requests.
	UpstreamStreamTimeout = 180 * time.Second
	// StorageTimeout bounds a single message store round trip.
	StorageTimeout = 5 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
	// ServerReadHeaderTimeout guards against slow-loris clients.
	ServerReadHeaderTimeout = 10 * time.Second
	// ConfigReloadDebounce coalesces bursts of file events.
	ConfigReloadDebounce = 100 * time.Millisecond
	// TokenizerWarmTimeout bounds how long startup waits for the tiktoken encoding.
	TokenizerWarmTimeout = 5 * time.Second
	// ConfigPollInterval is used when fsnotify is unavailable.
	ConfigPollInterval = 5 * time.Second
)
