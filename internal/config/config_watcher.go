package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"chatrelay-go/internal/constants"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the config file when it changes and notifies listeners
// with the freshly loaded configuration. Environment overrides are
// re-applied on every reload.
type Watcher struct {
	mu        sync.RWMutex
	path      string
	envFile   string
	current   *Config
	lastMod   time.Time
	onChange  []func(old, new *Config)
	stopCh    chan struct{}
	stopOnce  sync.Once
	debounce  time.Duration
	pollEvery time.Duration
}

// NewWatcher creates a watcher for path seeded with the already loaded cfg.
func NewWatcher(path string, cfg *Config) *Watcher {
	w := &Watcher{
		path:      path,
		envFile:   DefaultEnvFile,
		current:   cfg,
		stopCh:    make(chan struct{}),
		debounce:  constants.ConfigReloadDebounce,
		pollEvery: constants.ConfigPollInterval,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w
}

// OnChange registers a callback for configuration changes.
func (w *Watcher) OnChange(fn func(old, new *Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Current returns the latest configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching. It is a no-op when the file does not exist.
func (w *Watcher) Start() {
	if w.path == "" {
		return
	}
	if _, err := os.Stat(w.path); err != nil {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("failed to create file watcher, falling back to polling")
		w.startPolling()
		return
	}
	if err := watcher.Add(w.path); err != nil {
		log.WithError(err).WithField("path", w.path).Warn("failed to watch config file, falling back to polling")
		watcher.Close()
		w.startPolling()
		return
	}
	// 监听目录以捕获原子替换（rename）
	configDir := filepath.Dir(w.path)
	if err := watcher.Add(configDir); err != nil {
		log.WithError(err).WithField("dir", configDir).Warn("failed to watch config directory")
	}
	log.WithField("path", w.path).Info("config watcher started using fsnotify")

	go func() {
		defer watcher.Close()
		var debounceTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == filepath.Clean(w.path) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) != 0 {
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(w.debounce, w.checkAndReload)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")
			case <-w.stopCh:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()
}

func (w *Watcher) startPolling() {
	ticker := time.NewTicker(w.pollEvery)
	log.WithField("interval", w.pollEvery.String()).Info("config watcher started using polling")
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.checkAndReload()
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Watcher) checkAndReload() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}
	w.mu.RLock()
	changed := info.ModTime().After(w.lastMod)
	w.mu.RUnlock()
	if !changed {
		return
	}
	w.reload(info.ModTime())
}

func (w *Watcher) reload(modTime time.Time) {
	next, err := LoadWithEnvFile(w.path, w.envFile)
	if err != nil {
		log.WithError(err).WithField("path", w.path).Warn("failed to reload config")
		return
	}
	if err := next.Validate(); err != nil {
		log.WithError(err).WithField("path", w.path).Warn("reloaded config is invalid, keeping previous")
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = next
	w.lastMod = modTime
	callbacks := make([]func(old, new *Config), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	logConfigChanges(old, next)
	for _, fn := range callbacks {
		fn(old, next)
	}
}

func logConfigChanges(old, new *Config) {
	if old == nil || new == nil {
		return
	}
	if old.Server.Debug != new.Server.Debug {
		log.WithFields(log.Fields{"field": "server.debug", "old": old.Server.Debug, "new": new.Server.Debug}).Info("config changed")
	}
	if old.Server.LogFile != new.Server.LogFile {
		log.WithFields(log.Fields{"field": "server.log_file", "old": old.Server.LogFile, "new": new.Server.LogFile}).Info("config changed")
	}
	if old.Server.Port != new.Server.Port {
		log.WithFields(log.Fields{"field": "server.port", "old": old.Server.Port, "new": new.Server.Port}).Warn("config changed; port changes need a restart")
	}
	if old.Storage.Backend != new.Storage.Backend {
		log.WithFields(log.Fields{"field": "storage.backend", "old": old.Storage.Backend, "new": new.Storage.Backend}).Warn("config changed; storage changes need a restart")
	}
}
