// Package widgets holds the small widget set of the scaffold: a movable
// label, a button with an error-returning invoke slot, and a horizontal
// menu of buttons.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// Label is a text box that can be repositioned.
type Label struct {
	widget.Label
}

func NewLabel(text string) *Label {
	l := &Label{}
	l.Text = text
	l.Alignment = fyne.TextAlignCenter
	l.ExtendBaseWidget(l)
	return l
}

// Goto moves the label's top-left corner to pos.
func (l *Label) Goto(pos fyne.Position) {
	l.Move(pos)
	l.Refresh()
}
