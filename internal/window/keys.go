package window

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// rawNames maps fyne key names to the raw names the keyboard helper
// normalizes. Letters, digits and function keys fall through to lower case.
var rawNames = map[fyne.KeyName]string{
	desktop.KeyControlLeft:  "left ctrl",
	desktop.KeyControlRight: "right ctrl",
	desktop.KeyShiftLeft:    "left shift",
	desktop.KeyShiftRight:   "right shift",
	desktop.KeyAltLeft:      "left alt",
	desktop.KeyAltRight:     "right alt",
	desktop.KeySuperLeft:    "left windows",
	desktop.KeySuperRight:   "right windows",
	desktop.KeyMenu:         "menu",
	desktop.KeyCapsLock:     "caps lock",
	desktop.KeyPrintScreen:  "print screen",

	fyne.KeyEscape:    "esc",
	fyne.KeyReturn:    "enter",
	fyne.KeyEnter:     "num enter",
	fyne.KeyBackspace: "backspace",
	fyne.KeyPageUp:    "page up",
	fyne.KeyPageDown:  "page down",

	fyne.KeyApostrophe:   "quote",
	fyne.KeyComma:        "comma",
	fyne.KeyMinus:        "minus",
	fyne.KeyPeriod:       "period",
	fyne.KeySlash:        "slash",
	fyne.KeyBackslash:    "backslash",
	fyne.KeyLeftBracket:  "left bracket",
	fyne.KeyRightBracket: "right bracket",
	fyne.KeySemicolon:    "semicolon",
	fyne.KeyEqual:        "equals",
	fyne.KeyAsterisk:     "multiply",
	fyne.KeyPlus:         "plus",
	fyne.KeyBackTick:     "backquote",
}

// RawKeyName converts a fyne key name to the raw name fed to the keyboard
// helper. Unknown keys come back lower-cased and are filtered later.
func RawKeyName(name fyne.KeyName) string {
	if raw, ok := rawNames[name]; ok {
		return raw
	}
	return strings.ToLower(string(name))
}
