package constants

import "time"

// Outbound connection pool shared by both providers. Two upstream hosts at
// most, so the per-host limit is what matters.
const (
	UpstreamMaxIdleConns        = 64
	UpstreamMaxIdleConnsPerHost = 32
	UpstreamIdleConnTimeout     = 90 * time.Second
	UpstreamKeepAlive           = 30 * time.Second
)

// 上游超时默认值，可由 transport 配置覆盖
const (
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 60 * time.Second
	DefaultExpectContinueTimeout = 2 * time.Second
)
