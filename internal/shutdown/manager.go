// Package shutdown stops registered components in reverse order when the
// process is asked to exit.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"flowsheet/internal/logger"
)

const (
	component             = "ShutdownManager"
	defaultComponentLimit = 5 * time.Second
)

type Shutdownable interface {
	Shutdown()
}

// Func adapts a plain function to Shutdownable.
type Func func()

func (f Func) Shutdown() { f() }

type entry struct {
	name string
	c    Shutdownable
}

// Manager runs Shutdown on its components once, last registered first.
type Manager struct {
	mu         sync.Mutex
	components []entry
	logger     logger.Logger
	limit      time.Duration
	done       chan struct{}
	finished   chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

type Option func(*Manager)

// WithComponentTimeout bounds how long one component may take to stop.
func WithComponentTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.limit = d
		}
	}
}

func NewManager(log logger.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger.OrNoOp(log),
		limit:    defaultComponentLimit,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a named component. Components registered after shutdown
// began are stopped immediately.
func (m *Manager) Register(name string, c Shutdownable) {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		m.stop(entry{name: name, c: c})
		return
	default:
	}
	m.components = append(m.components, entry{name: name, c: c})
	m.mu.Unlock()
}

// Listen shuts down on SIGINT or SIGTERM until the returned stop function
// is called.
func (m *Manager) Listen() (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			m.logger.Info(component, "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.Shutdown()
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(quit)
		})
	}
}

// Shutdown stops every component once. Later calls wait for the first one
// to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		<-m.finished
		return
	default:
		close(m.done)
	}
	components := m.components
	m.components = nil
	m.mu.Unlock()

	m.logger.Info(component, "shutdown sequence initiated", map[string]interface{}{
		"components": len(components),
	})
	m.cancel()

	for i := len(components) - 1; i >= 0; i-- {
		m.stop(components[i])
	}

	m.logger.Info(component, "shutdown sequence completed", nil)
	close(m.finished)
}

func (m *Manager) stop(e entry) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.c.Shutdown()
	}()

	select {
	case <-done:
		m.logger.Debug(component, "component stopped", map[string]interface{}{"component": e.name})
	case <-time.After(m.limit):
		m.logger.Warning(component, "component shutdown timeout", map[string]interface{}{
			"component": e.name,
			"timeout":   m.limit.String(),
		})
	}
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
