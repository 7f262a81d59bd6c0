package upstream

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/constants"
)

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

// NewHTTPClient builds the shared outbound client. There is no overall
// client timeout; streams are bounded by the request context.
func NewHTTPClient(cfg config.TransportConfig) *http.Client {
	tr := &http.Transport{
		Proxy: proxyFunc(cfg.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   durationOrDefault(cfg.DialTimeoutSec, constants.DefaultDialTimeout),
			KeepAlive: constants.UpstreamKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   durationOrDefault(cfg.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout),
		ResponseHeaderTimeout: durationOrDefault(cfg.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout),
		ExpectContinueTimeout: constants.DefaultExpectContinueTimeout,
		MaxIdleConns:          constants.UpstreamMaxIdleConns,
		MaxIdleConnsPerHost:   constants.UpstreamMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.UpstreamIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: tr, Timeout: 0}
}

// proxyFunc prefers the configured proxy and falls back to the environment.
func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsedURL, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsedURL)
		}
	}
	return http.ProxyFromEnvironment
}
