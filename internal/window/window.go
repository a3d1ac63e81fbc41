// Package window wraps a fyne window as the scaffold's event loop: it feeds
// raw key transitions to a listener and dispatches typed keys to a table of
// checks.
package window

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"flowsheet/internal/logger"
)

const component = "Window"

// ErrCheckExists is returned by AddCheck for a key that already has a check.
// Use UpdateCheck to replace it.
var ErrCheckExists = errors.New("check already registered")

// KeyListener receives raw key transitions. keyboard.Helper satisfies it.
type KeyListener interface {
	KeyDown(raw string)
	KeyUp(raw string)
}

type Window struct {
	win    fyne.Window
	logger logger.Logger

	mu       sync.RWMutex
	title    string
	checks   map[fyne.KeyName]func()
	listener KeyListener
}

type Option func(*Window)

func WithLogger(l logger.Logger) Option {
	return func(w *Window) {
		w.logger = logger.OrNoOp(l)
	}
}

// New creates a window on app with a fixed initial size.
func New(app fyne.App, title string, size fyne.Size, opts ...Option) *Window {
	w := &Window{
		win:    app.NewWindow(title),
		logger: logger.NoOpLogger{},
		title:  title,
		checks: make(map[fyne.KeyName]func()),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.win.Resize(size)
	w.win.Canvas().SetOnTypedKey(w.HandleTypedKey)
	return w
}

// Fyne exposes the underlying window.
func (w *Window) Fyne() fyne.Window {
	return w.win
}

func (w *Window) Title() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	w.win.SetTitle(title)
}

func (w *Window) Size() fyne.Size {
	return w.win.Canvas().Size()
}

func (w *Window) Resize(size fyne.Size) {
	w.win.Resize(size)
}

func (w *Window) SetContent(content fyne.CanvasObject) {
	w.win.SetContent(content)
}

// AttachKeyHook forwards raw key transitions to l. It reports whether the
// canvas delivers key-up events; without them only HandleKeyDown and
// HandleKeyUp feed l.
func (w *Window) AttachKeyHook(l KeyListener) bool {
	w.mu.Lock()
	w.listener = l
	w.mu.Unlock()

	dc, ok := w.win.Canvas().(desktop.Canvas)
	if !ok {
		w.logger.Warning(component, "canvas has no key-up events, combos need manual feeding", nil)
		return false
	}
	dc.SetOnKeyDown(func(ev *fyne.KeyEvent) { w.HandleKeyDown(ev.Name) })
	dc.SetOnKeyUp(func(ev *fyne.KeyEvent) { w.HandleKeyUp(ev.Name) })
	return true
}

// HandleKeyDown forwards a key press to the attached listener.
func (w *Window) HandleKeyDown(name fyne.KeyName) {
	if l := w.keyListener(); l != nil {
		l.KeyDown(RawKeyName(name))
	}
}

// HandleKeyUp forwards a key release to the attached listener.
func (w *Window) HandleKeyUp(name fyne.KeyName) {
	if l := w.keyListener(); l != nil {
		l.KeyUp(RawKeyName(name))
	}
}

func (w *Window) keyListener() KeyListener {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.listener
}

// AddCheck runs fn whenever key is typed in the window.
func (w *Window) AddCheck(key fyne.KeyName, fn func()) error {
	if fn == nil {
		return fmt.Errorf("nil check for key %q", key)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.checks[key]; exists {
		return fmt.Errorf("%w: %q", ErrCheckExists, key)
	}
	w.checks[key] = fn
	return nil
}

// RemoveCheck deletes the check for key and reports whether one existed.
func (w *Window) RemoveCheck(key fyne.KeyName) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.checks[key]
	delete(w.checks, key)
	return ok
}

// UpdateCheck sets the check for key, replacing any existing one.
func (w *Window) UpdateCheck(key fyne.KeyName, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fn == nil {
		delete(w.checks, key)
		return
	}
	w.checks[key] = fn
}

// Checks lists the keys with a check, sorted.
func (w *Window) Checks() []fyne.KeyName {
	w.mu.RLock()
	defer w.mu.RUnlock()
	keys := make([]fyne.KeyName, 0, len(w.checks))
	for k := range w.checks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// HandleTypedKey runs the check registered for the typed key, if any.
func (w *Window) HandleTypedKey(ev *fyne.KeyEvent) {
	w.mu.RLock()
	fn := w.checks[ev.Name]
	w.mu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(component, fmt.Errorf("check for key %q panicked: %v", ev.Name, r), nil)
		}
	}()
	fn()
}

// SetOnClosed runs fn when the window closes.
func (w *Window) SetOnClosed(fn func()) {
	w.win.SetOnClosed(fn)
}

// ShowAndRun displays the window and blocks in the app's event loop.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) Close() {
	w.win.Close()
}
