package constants

import "time"

// 缓存相关常量
const (
	// MessageCacheTTL is the default lifetime of a cached message lookup.
	MessageCacheTTL = 5 * time.Minute

	// 内存缓存（ristretto）配置
	MemoryCacheNumCounters = 100_000
	MemoryCacheMaxCost     = 64 << 20 // 64MB of encoded messages
	MemoryCacheBufferItems = 64

	// WebSocket 日志缓存
	WSLogBufferSize  = 100
	WSLogHistorySize = 500
	WSLogMaxClients  = 50
)
