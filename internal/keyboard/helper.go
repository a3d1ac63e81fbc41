package keyboard

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowsheet/internal/logger"
)

const (
	// DefaultPollInterval is how often combos are evaluated.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultMaxInterval is the largest gap allowed between consecutive
	// combo key presses.
	DefaultMaxInterval = 500 * time.Millisecond

	stopTimeout = time.Second
	component   = "KeyboardHelper"
)

// HandlerFunc is attached to a key or combo. Returned errors are logged.
type HandlerFunc func() error

// HandlerID identifies one handler registration.
type HandlerID string

type registration struct {
	id HandlerID
	fn HandlerFunc
}

// Helper owns the key state, the single-key handler table and the combo
// matcher. Independent helpers share no state.
type Helper struct {
	mu sync.Mutex

	state       *keyState
	keyHandlers map[string][]registration
	combos      []*combo
	comboIndex  map[string]*combo

	maxInterval  time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       logger.Logger

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Option configures a Helper.
type Option func(*Helper)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Helper) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLogger sets the logger used for handler failures and lifecycle.
func WithLogger(l logger.Logger) Option {
	return func(h *Helper) {
		h.logger = logger.OrNoOp(l)
	}
}

// WithPollInterval sets the combo poll period. Non-positive values are
// ignored.
func WithPollInterval(d time.Duration) Option {
	return func(h *Helper) {
		if d > 0 {
			h.pollInterval = d
		}
	}
}

// WithMaxInterval sets the initial max combo interval. Non-positive values
// are ignored; use SetMaxInterval to get an error instead.
func WithMaxInterval(d time.Duration) Option {
	return func(h *Helper) {
		if d > 0 {
			h.maxInterval = d
		}
	}
}

// WithHistorySize bounds the press history. Non-positive values are ignored.
func WithHistorySize(n int) Option {
	return func(h *Helper) {
		if n > 0 {
			h.state = newKeyState(n)
		}
	}
}

// New creates a stopped Helper.
func New(opts ...Option) *Helper {
	h := &Helper{
		state:        newKeyState(DefaultHistorySize),
		keyHandlers:  make(map[string][]registration),
		comboIndex:   make(map[string]*combo),
		maxInterval:  DefaultMaxInterval,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		logger:       logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins accepting key transitions and launches the combo poller.
// Calling Start on a running helper does nothing.
func (h *Helper) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	stop, done, interval := h.stopCh, h.doneCh, h.pollInterval
	h.mu.Unlock()

	go h.pollLoop(stop, done, interval)

	h.logger.Debug(component, "started", map[string]interface{}{
		"poll_interval": interval.String(),
	})
}

// Stop halts the poller, waiting up to one second for it to exit, and
// clears the pressed set and history so the next Start begins clean.
func (h *Helper) Stop() {
	h.mu.Lock()
	wasRunning := h.running
	stop, done := h.stopCh, h.doneCh
	h.running = false
	h.stopCh, h.doneCh = nil, nil
	h.mu.Unlock()

	if wasRunning {
		close(stop)
		select {
		case <-done:
		case <-time.After(stopTimeout):
			h.logger.Warning(component, "poll loop did not exit in time", map[string]interface{}{
				"timeout": stopTimeout.String(),
			})
		}
	}

	h.mu.Lock()
	h.state.reset()
	for _, c := range h.combos {
		c.lastFired = time.Time{}
	}
	h.mu.Unlock()

	if wasRunning {
		h.logger.Debug(component, "stopped", nil)
	}
}

// Shutdown stops the helper; it lets the helper take part in ordered
// application shutdown.
func (h *Helper) Shutdown() {
	h.Stop()
}

// Running reports whether the helper is started.
func (h *Helper) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// KeyDown records a raw key press from the platform hook. Unrecognized
// names and transitions arriving while stopped are ignored. Single-key
// handlers run on the caller's goroutine, only on the rising edge.
func (h *Helper) KeyDown(raw string) {
	name, ok := Normalize(raw)
	if !ok {
		return
	}

	h.mu.Lock()
	if !h.running || !h.state.press(name, h.now()) {
		h.mu.Unlock()
		return
	}
	handlers := append([]registration(nil), h.keyHandlers[name]...)
	h.mu.Unlock()

	for _, reg := range handlers {
		h.invoke(KindKey, name, reg)
	}
}

// KeyUp records a raw key release. Releasing a key that is not down does
// nothing.
func (h *Helper) KeyUp(raw string) {
	name, ok := Normalize(raw)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.state.release(name)
	}
}

// IsPressed reports whether the key is currently held.
func (h *Helper) IsPressed(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.isPressed(NormalizeName(name))
}

// Pressed returns the currently held keys in no particular order.
func (h *Helper) Pressed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.snapshot()
}

// History returns a copy of the buffered presses, oldest first.
func (h *Helper) History() []Press {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.historySnapshot()
}

// LastKey returns the most recently buffered key.
func (h *Helper) LastKey() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.last()
}

// ClearHistory empties the press history without touching the pressed set.
func (h *Helper) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.clearHistory()
}

// MaxInterval returns the current max gap between combo key presses.
func (h *Helper) MaxInterval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxInterval
}

// SetMaxInterval changes the max combo gap. Non-positive values fail with
// ErrInvalidArgument and leave the previous value in place.
func (h *Helper) SetMaxInterval(d time.Duration) error {
	if d <= 0 {
		return invalidArgument("max interval must be positive, got %s", d)
	}
	h.mu.Lock()
	h.maxInterval = d
	h.mu.Unlock()
	return nil
}

func (h *Helper) pollLoop(stop <-chan struct{}, done chan<- struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.pollOnce()
		}
	}
}

// pollOnce runs one cycle and keeps the loop alive if it panics.
func (h *Helper) pollOnce() {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(component, &PanicError{Value: r, Stack: string(debug.Stack())}, map[string]interface{}{
				"stage": "poll",
			})
		}
	}()
	h.CheckCombos()
}

func (h *Helper) invoke(kind, target string, reg registration) {
	defer func() {
		if r := recover(); r != nil {
			h.reportFailure(kind, target, reg.id, &PanicError{Value: r, Stack: string(debug.Stack())})
		}
	}()
	if err := reg.fn(); err != nil {
		h.reportFailure(kind, target, reg.id, err)
	}
}

func (h *Helper) reportFailure(kind, target string, id HandlerID, err error) {
	h.logger.Error(component, &HandlerError{Kind: kind, Target: target, HandlerID: id, Err: err}, map[string]interface{}{
		"kind":   kind,
		"target": target,
	})
}

func newHandlerID() HandlerID {
	return HandlerID(uuid.NewString())
}
