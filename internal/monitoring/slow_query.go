package monitoring

import (
	"sync"
	"time"
)

// SlowQueryThreshold 慢查询阈值
const SlowQueryThreshold = 100 * time.Millisecond

// SlowQuery 慢查询记录
type SlowQuery struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Details   string        `json:"details"`
}

// SlowQueryLogger keeps a bounded ring of storage operations that exceeded
// the threshold.
type SlowQueryLogger struct {
	mu        sync.RWMutex
	threshold time.Duration
	queries   []SlowQuery
	maxSize   int
}

// NewSlowQueryLogger 创建慢查询日志记录器
func NewSlowQueryLogger(threshold time.Duration, maxSize int) *SlowQueryLogger {
	if threshold <= 0 {
		threshold = SlowQueryThreshold
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &SlowQueryLogger{
		threshold: threshold,
		queries:   make([]SlowQuery, 0, maxSize),
		maxSize:   maxSize,
	}
}

// Threshold returns the configured threshold.
func (l *SlowQueryLogger) Threshold() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.threshold
}

// Observe records the operation when it ran at least as long as the
// threshold and reports whether it did.
func (l *SlowQueryLogger) Observe(operation, details string, start time.Time, d time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d < l.threshold {
		return false
	}
	if len(l.queries) >= l.maxSize {
		l.queries = l.queries[1:]
	}
	l.queries = append(l.queries, SlowQuery{Timestamp: start, Operation: operation, Duration: d, Details: details})
	return true
}

// Recent 获取最近的 N 条慢查询记录
func (l *SlowQueryLogger) Recent(n int) []SlowQuery {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.queries) {
		n = len(l.queries)
	}
	out := make([]SlowQuery, n)
	copy(out, l.queries[len(l.queries)-n:])
	return out
}

var globalSlowQueryLogger = NewSlowQueryLogger(SlowQueryThreshold, 1000)

// SlowQueries returns the process-wide slow query log.
func SlowQueries() *SlowQueryLogger {
	return globalSlowQueryLogger
}
