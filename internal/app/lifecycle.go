package app

import (
	"fmt"
	"os"
	"sync"

	"flowsheet/internal/config"
	"flowsheet/internal/logger"
	"flowsheet/internal/shutdown"
)

// Lifecycle owns the start and the ordered shutdown of a run. The run log
// outlives every other component.
type Lifecycle struct {
	runLog  *logger.RunLog
	manager *shutdown.Manager

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

func NewLifecycle(runLog *logger.RunLog) *Lifecycle {
	return &Lifecycle{
		runLog:  runLog,
		manager: shutdown.NewManager(runLog),
	}
}

// Start brings a's background parts up once and registers them for
// shutdown. Components stop in reverse order: the window first, the
// keyboard helper last.
func (l *Lifecycle) Start(a *Application) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}

	l.runLog.LogInfo("application start")

	a.keys.Start()
	l.manager.Register("keyboard", a.keys)

	if a.configPath != "" {
		w, err := config.Watch(a.configPath, a.applyConfig,
			config.WithWatcherLogger(l.runLog),
			config.WithContext(l.manager.Context()))
		if err != nil {
			l.runLog.Warning("Lifecycle", "config reload disabled", map[string]interface{}{
				"path":  a.configPath,
				"error": err.Error(),
			})
		} else {
			l.manager.Register("config-watcher", shutdown.Func(func() { _ = w.Close() }))
		}
	}

	a.window.SetOnClosed(func() {
		l.runLog.Info("Lifecycle", "window closed", nil)
	})
	if !a.window.AttachKeyHook(a.keys) {
		l.runLog.Warning("Lifecycle", "combos limited to fed key events", nil)
	}
	l.manager.Register("window", shutdown.Func(a.requestQuit))

	l.started = true
	return nil
}

// Listen shuts the registered components down on SIGINT or SIGTERM.
func (l *Lifecycle) Listen() (stop func()) {
	return l.manager.Listen()
}

// Done is closed once shutdown begins.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.manager.Done()
}

// Shutdown stops every component, logs the exit and closes the run log.
// Concurrent callers wait for the first to finish.
func (l *Lifecycle) Shutdown() {
	l.stopOnce.Do(func() {
		l.manager.Shutdown()
		l.runLog.LogInfo("application exit")
		if err := l.runLog.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing run log %s: %v\n", l.runLog.Path(), err)
		}
	})
}
