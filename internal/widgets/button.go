package widgets

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// Button is a fyne button whose action is an assignable invoke slot that
// may fail. Errors from taps go to OnError.
type Button struct {
	widget.Button

	// OnError receives the error of a tapped invoke. When nil the error is
	// dropped.
	OnError func(error)

	mu     sync.RWMutex
	invoke func() error
}

// NewButton creates a button with no action; bind one with SetInvoke.
func NewButton(text string) *Button {
	b := &Button{}
	b.Text = text
	b.OnTapped = b.tapped
	b.ExtendBaseWidget(b)
	return b
}

// SetInvoke replaces the button's action.
func (b *Button) SetInvoke(fn func() error) {
	b.mu.Lock()
	b.invoke = fn
	b.mu.Unlock()
}

// Bound reports whether an action is set.
func (b *Button) Bound() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.invoke != nil
}

// Invoke runs the action as a tap would and returns its error. An unbound
// button does nothing.
func (b *Button) Invoke() error {
	b.mu.RLock()
	fn := b.invoke
	b.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn()
}

// ContainsPoint reports whether p, in the parent's coordinates, falls
// inside the button.
func (b *Button) ContainsPoint(p fyne.Position) bool {
	pos, size := b.Position(), b.Size()
	return p.X >= pos.X && p.Y >= pos.Y &&
		p.X < pos.X+size.Width && p.Y < pos.Y+size.Height
}

func (b *Button) tapped() {
	if err := b.Invoke(); err != nil && b.OnError != nil {
		b.OnError(err)
	}
}
