package keyboard

import "strings"

// ComboSeparator joins key names in a combo identifier, as in "ctrl+q".
const ComboSeparator = "+"

var modifierKeys = map[string]struct{}{
	"ctrl": {}, "left ctrl": {}, "right ctrl": {},
	"shift": {}, "left shift": {}, "right shift": {},
	"alt": {}, "left alt": {}, "right alt": {},
	"windows": {}, "left windows": {}, "right windows": {},
	"menu": {},
}

// keyChars maps symbolic key names to the character they type.
var keyChars = func() map[string]string {
	m := map[string]string{
		"space":         " ",
		"period":        ".",
		"comma":         ",",
		"slash":         "/",
		"backslash":     "\\",
		"minus":         "-",
		"equals":        "=",
		"left bracket":  "[",
		"right bracket": "]",
		"semicolon":     ";",
		"quote":         "'",
		"backquote":     "`",
		"enter":         "\n",
		"tab":           "\t",
		"plus":          "+",
	}
	for _, r := range "abcdefghijklmnopqrstuvwxyz0123456789" {
		m[string(r)] = string(r)
	}
	return m
}()

var normalization = func() map[string]string {
	m := map[string]string{
		"left ctrl":     "ctrl",
		"right ctrl":    "ctrl",
		"left shift":    "shift",
		"right shift":   "shift",
		"left alt":      "alt",
		"right alt":     "alt",
		"left windows":  "windows",
		"right windows": "windows",

		"num +":     "plus",
		"num -":     "minus",
		"num *":     "multiply",
		"num /":     "divide",
		"num enter": "enter",
		"num .":     "period",

		"page up":      "pageup",
		"page down":    "pagedown",
		"caps lock":    "capslock",
		"scroll lock":  "scrolllock",
		"num lock":     "numlock",
		"print screen": "printscreen",
		"insert":       "ins",
		"delete":       "del",
		"escape":       "esc",
		"esc":          "esc",
		"backspace":    "backspace",
		"home":         "home",
		"end":          "end",

		"up":    "up",
		"down":  "down",
		"left":  "left",
		"right": "right",
	}
	for d := '0'; d <= '9'; d++ {
		m["num "+string(d)] = string(d)
	}
	for _, f := range []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12"} {
		m[f] = f
	}
	return m
}()

var normalizedTargets = func() map[string]struct{} {
	m := make(map[string]struct{}, len(normalization))
	for _, v := range normalization {
		m[v] = struct{}{}
	}
	return m
}()

// NormalizeName case-folds a raw key name and maps modifier sides, numpad
// names and long-form aliases to their canonical name. It does not decide
// whether the name is recognized; see Normalize.
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := normalization[name]; ok {
		return canonical
	}
	return name
}

// Normalize returns the canonical name for raw and whether it is a
// recognized key. Names longer than one character must be a symbol alias, a
// modifier or a normalization target to be recognized.
func Normalize(raw string) (string, bool) {
	name := NormalizeName(raw)
	return name, IsRecognized(name)
}

// IsRecognized reports whether a normalized name is tracked by the helper.
func IsRecognized(name string) bool {
	if name == "" {
		return false
	}
	if len([]rune(name)) == 1 {
		return true
	}
	if _, ok := keyChars[name]; ok {
		return true
	}
	if _, ok := modifierKeys[name]; ok {
		return true
	}
	_, ok := normalizedTargets[name]
	return ok
}

// IsModifier reports whether name is a modifier key, either side.
func IsModifier(name string) bool {
	_, ok := modifierKeys[strings.ToLower(name)]
	return ok
}

// KeyChar returns the character typed by a key name, if it has one.
func KeyChar(name string) (string, bool) {
	c, ok := keyChars[strings.ToLower(name)]
	return c, ok
}

// ComboID joins normalized combo keys into the identifier used for lookups
// and log messages.
func ComboID(keys []string) string {
	return strings.Join(keys, ComboSeparator)
}

func normalizeCombo(keys []string) ([]string, error) {
	if len(keys) < 2 {
		return nil, invalidArgument("combo needs at least two keys, got %d", len(keys))
	}
	out := make([]string, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for i, k := range keys {
		name := NormalizeName(k)
		if name == "" {
			return nil, invalidArgument("combo key %d is empty", i)
		}
		if _, dup := seen[name]; dup {
			return nil, invalidArgument("combo key %q repeated", name)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out, nil
}
