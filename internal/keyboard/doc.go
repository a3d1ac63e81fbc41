// Package keyboard tracks pressed keys and detects ordered key combinations.
//
// A Helper receives raw key transitions from a platform hook through KeyDown
// and KeyUp. Raw names are normalized ("Left Ctrl" becomes "ctrl", "num 5"
// becomes "5") and unrecognized device-specific names are dropped.
//
// Two kinds of handlers can be attached:
//
//   - Single-key handlers run synchronously on the hook path, once per rising
//     edge of their key.
//   - Combo handlers run from a background poll goroutine when every key of
//     the combo is held and the keys were pressed in the declared order, each
//     within the max interval of the previous one.
//
// Basic usage:
//
//	h := keyboard.New(keyboard.WithLogger(log))
//	h.AddCombo([]string{"ctrl", "q"}, func() error {
//		return app.Quit()
//	})
//	h.Start()
//	defer h.Stop()
//
// Handler errors and panics are logged and never stop the poll loop or other
// handlers.
package keyboard
