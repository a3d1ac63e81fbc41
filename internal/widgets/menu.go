package widgets

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// ErrMenuMismatch is returned when a menu is given a different number of
// actions than labels.
var ErrMenuMismatch = errors.New("menu labels and actions differ in length")

// Menu is a horizontal bar of buttons addressed by position.
type Menu struct {
	id      string
	buttons []*Button
	bar     *fyne.Container
}

// NewMenu builds one button per label. actions may be nil to bind every
// button later; otherwise it must match labels one to one, and nil entries
// leave that button unbound.
func NewMenu(id string, labels []string, actions []func() error) (*Menu, error) {
	if actions != nil && len(actions) != len(labels) {
		return nil, fmt.Errorf("%w: menu %q has %d labels and %d actions", ErrMenuMismatch, id, len(labels), len(actions))
	}

	m := &Menu{id: id, buttons: make([]*Button, len(labels))}
	objects := make([]fyne.CanvasObject, len(labels))
	for i, text := range labels {
		b := NewButton(text)
		if actions != nil && actions[i] != nil {
			b.SetInvoke(actions[i])
		}
		m.buttons[i] = b
		objects[i] = b
	}
	m.bar = container.NewHBox(objects...)
	return m, nil
}

func (m *Menu) ID() string {
	return m.id
}

func (m *Menu) Len() int {
	return len(m.buttons)
}

// Buttons returns the menu's buttons in order.
func (m *Menu) Buttons() []*Button {
	return append([]*Button(nil), m.buttons...)
}

// Button returns the button at index i.
func (m *Menu) Button(i int) (*Button, bool) {
	if i < 0 || i >= len(m.buttons) {
		return nil, false
	}
	return m.buttons[i], true
}

// SetOnError routes tap errors of every button to fn.
func (m *Menu) SetOnError(fn func(error)) {
	for _, b := range m.buttons {
		b.OnError = fn
	}
}

// Object is the canvas object to place in a layout.
func (m *Menu) Object() fyne.CanvasObject {
	return m.bar
}
