package am

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/logger"
)

// reloadDebounce absorbs editor save bursts (write + chmod + rename)
const reloadDebounce = 500 * time.Millisecond

// ReloadCallback receives the freshly loaded config after a watched file
// changes on disk.
type ReloadCallback func(*Config) error

// ConfigWatcher reloads the config cascade when a watched file changes.
// Writes made through the Update helpers are marked so they do not loop
// back through a reload.
type ConfigWatcher struct {
	configPath string
	fs         *fsnotify.Watcher
	ownWrite   atomic.Bool

	mu            sync.RWMutex
	callbacks     []ReloadCallback
	debounceTimer *time.Timer
}

var (
	globalWatcher   *ConfigWatcher
	globalWatcherMu sync.Mutex
)

// NewConfigWatcher watches configPath, which must already exist.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fs.Add(configPath); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "watch config file %s", configPath)
	}
	return &ConfigWatcher{configPath: configPath, fs: fs}, nil
}

// OnReload registers a callback invoked after every successful reload
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite suppresses the reload for the next write event
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.ownWrite.Store(true)
}

func (cw *ConfigWatcher) checkOwnWrite() bool {
	return cw.ownWrite.Swap(false)
}

// Start launches the event loop. Stop closes the underlying watcher,
// which ends the loop.
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fs.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if isBackupFile(event.Name) {
				continue
			}
			if cw.checkOwnWrite() {
				logger.Debugw("Config watcher ignoring own write", "file", event.Name)
				continue
			}
			logger.Infow("Config watcher detected change",
				"file", event.Name,
				"op", event.Op.String(),
			)
			cw.scheduleReload()

		case err, ok := <-cw.fs.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", "error", err)
		}
	}
}

// scheduleReload restarts the debounce timer; only the last write in a
// burst triggers a reload.
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(reloadDebounce, func() {
		if err := cw.reload(); err != nil {
			logger.Errorw("Config reload failed", "error", err)
		}
	})
}

// reload rebuilds the cascade from scratch and fans the new config out to
// every callback. One failing callback does not stop the others.
func (cw *ConfigWatcher) reload() error {
	Reset()
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "reload config")
	}
	logger.Infow("Config reloaded", "path", cw.configPath)

	cw.mu.RLock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			logger.Warnw("Config reload callback error", "error", err)
		}
	}
	return nil
}

// Stop closes the watcher and its event loop
func (cw *ConfigWatcher) Stop() error {
	return cw.fs.Close()
}

// isBackupFile matches the rotating .backN copies written by persist
func isBackupFile(path string) bool {
	return strings.Contains(filepath.Base(path), ".toml.back")
}

// SetGlobalWatcher publishes the watcher so Update helpers can mark their
// own writes.
func SetGlobalWatcher(watcher *ConfigWatcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}

// GetGlobalWatcher returns the watcher set at serve startup, or nil
func GetGlobalWatcher() *ConfigWatcher {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	return globalWatcher
}
