package logging

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"chatrelay-go/internal/constants"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// ErrMaxClientsReached is returned when the tail already serves the configured number of sockets.
var ErrMaxClientsReached = errors.New("maximum log tail clients reached")

// Entry is one log line as sent to tail clients.
type Entry struct {
	ID        uint64         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogTail keeps a bounded history of recent log entries and fans new ones
// out to websocket subscribers. Slow subscribers drop entries rather than
// block logging.
type LogTail struct {
	mu         sync.RWMutex
	history    []Entry
	historyCap int
	clients    map[chan Entry]struct{}
	maxClients int
	seq        atomic.Uint64
	upgrader   websocket.Upgrader
}

func NewLogTail() *LogTail {
	return &LogTail{
		history:    make([]Entry, 0, constants.WSLogHistorySize),
		historyCap: constants.WSLogHistorySize,
		clients:    make(map[chan Entry]struct{}),
		maxClients: constants.WSLogMaxClients,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Levels implements logrus.Hook.
func (t *LogTail) Levels() []log.Level { return log.AllLevels }

// Fire implements logrus.Hook.
func (t *LogTail) Fire(e *log.Entry) error {
	fields := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}
	t.Publish(e.Level.String(), e.Message, fields)
	return nil
}

// Publish records an entry and offers it to every subscriber.
func (t *LogTail) Publish(level, msg string, fields map[string]any) {
	entry := Entry{
		ID:        t.seq.Add(1),
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	t.mu.Lock()
	t.history = append(t.history, entry)
	if over := len(t.history) - t.historyCap; over > 0 {
		t.history = append(t.history[:0:0], t.history[over:]...)
	}
	for ch := range t.clients {
		select {
		case ch <- entry:
		default:
		}
	}
	t.mu.Unlock()
}

// Since returns up to limit entries with an ID greater than cursor.
func (t *LogTail) Since(cursor uint64, limit int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || limit > t.historyCap {
		limit = t.historyCap
	}
	out := make([]Entry, 0, limit)
	for _, e := range t.history {
		if e.ID <= cursor {
			continue
		}
		out = append(out, e)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (t *LogTail) subscribe() (chan Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.clients) >= t.maxClients {
		return nil, ErrMaxClientsReached
	}
	ch := make(chan Entry, constants.WSLogBufferSize)
	t.clients[ch] = struct{}{}
	return ch, nil
}

func (t *LogTail) unsubscribe(ch chan Entry) {
	t.mu.Lock()
	delete(t.clients, ch)
	t.mu.Unlock()
}

// Clients reports the number of connected subscribers.
func (t *LogTail) Clients() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// ServeWS upgrades the request, replays the recent history and then streams
// new entries until the peer goes away.
func (t *LogTail) ServeWS(w http.ResponseWriter, r *http.Request) {
	ch, err := t.subscribe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer t.unsubscribe(ch)

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("log tail upgrade failed")
		return
	}
	defer conn.Close()

	// 读循环只用于感知断开
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var last uint64
	for _, e := range t.Since(0, 0) {
		if err := conn.WriteJSON(e); err != nil {
			return
		}
		last = e.ID
	}
	for {
		select {
		case e := <-ch:
			if e.ID <= last {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

var (
	globalTail     *LogTail
	globalTailOnce sync.Once
)

// Tail returns the process-wide log tail.
func Tail() *LogTail {
	globalTailOnce.Do(func() { globalTail = NewLogTail() })
	return globalTail
}

// InstallLogTail hooks the process-wide tail into logrus.
func InstallLogTail() *LogTail {
	t := Tail()
	log.AddHook(t)
	return t
}
