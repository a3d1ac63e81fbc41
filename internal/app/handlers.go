package app

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"flowsheet/internal/events"
	"flowsheet/internal/keyboard"
	"flowsheet/internal/widgets"
)

const helpText = "ctrl+q quits, F1 shows help, Esc clears key history"

// Handlers are the application methods bound to buttons, keys and combos.
type Handlers struct {
	status *widgets.Label
	keys   *keyboard.Helper
	sink   events.Sink
	window fyne.Window
	quit   func()

	quitOnce sync.Once
	quitting chan struct{}
}

func NewHandlers(status *widgets.Label, keys *keyboard.Helper, sink events.Sink, win fyne.Window, quit func()) *Handlers {
	return &Handlers{
		status:   status,
		keys:     keys,
		sink:     sink,
		window:   win,
		quit:     quit,
		quitting: make(chan struct{}),
	}
}

// Quit asks the event loop to stop. Repeated calls do nothing.
func (h *Handlers) Quit() error {
	h.quitOnce.Do(func() {
		close(h.quitting)
		if h.quit != nil {
			h.quit()
		}
	})
	return nil
}

// Quitting is closed once Quit has been called.
func (h *Handlers) Quitting() <-chan struct{} {
	return h.quitting
}

func (h *Handlers) ShowHelp() error {
	h.setStatus(helpText)
	return nil
}

func (h *Handlers) ClearHistory() error {
	h.keys.ClearHistory()
	h.setStatus("key history cleared")
	return nil
}

// ShowPressed puts the currently held keys in the status line.
func (h *Handlers) ShowPressed() error {
	pressed := h.keys.Pressed()
	if len(pressed) == 0 {
		h.setStatus("no keys held")
		return nil
	}
	h.setStatus("held: " + strings.Join(pressed, keyboard.ComboSeparator))
	return nil
}

// ReportError logs a failed handler and shows it to the user.
func (h *Handlers) ReportError(err error) {
	if err == nil {
		return
	}
	if h.sink != nil {
		h.sink.LogError(fmt.Sprintf("handler failed: %v", err))
	}
	if h.window != nil {
		fyne.Do(func() {
			dialog.ShowError(err, h.window)
		})
	}
}

func (h *Handlers) setStatus(text string) {
	fyne.Do(func() {
		h.status.SetText(text)
	})
}
