package keyboard

import "time"

// DefaultHistorySize bounds the press history used for combo matching.
const DefaultHistorySize = 20

// Press is one entry of the press history.
type Press struct {
	Key  string
	Time time.Time
}

// keyState is not safe for concurrent use; Helper guards it.
type keyState struct {
	pressed map[string]struct{}
	history []Press
	size    int
}

func newKeyState(size int) *keyState {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &keyState{
		pressed: make(map[string]struct{}),
		history: make([]Press, 0, size),
		size:    size,
	}
}

// press records a rising edge. It returns false when name was already down.
func (s *keyState) press(name string, at time.Time) bool {
	if _, down := s.pressed[name]; down {
		return false
	}
	s.pressed[name] = struct{}{}
	s.history = append(s.history, Press{Key: name, Time: at})
	if over := len(s.history) - s.size; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
	return true
}

func (s *keyState) release(name string) bool {
	if _, down := s.pressed[name]; !down {
		return false
	}
	delete(s.pressed, name)
	return true
}

func (s *keyState) isPressed(name string) bool {
	_, down := s.pressed[name]
	return down
}

func (s *keyState) snapshot() []string {
	out := make([]string, 0, len(s.pressed))
	for k := range s.pressed {
		out = append(out, k)
	}
	return out
}

// prune drops history entries older than maxAge. The pressed set is left
// alone: a held key stays pressed however long ago it went down.
func (s *keyState) prune(now time.Time, maxAge time.Duration) {
	kept := s.history[:0]
	for _, p := range s.history {
		if now.Sub(p.Time) <= maxAge {
			kept = append(kept, p)
		}
	}
	s.history = kept
}

// match checks keys against the pressed set and history. On success it
// returns the press time of the last key in the combo.
func (s *keyState) match(keys []string, maxInterval time.Duration) (time.Time, bool) {
	for _, k := range keys {
		if !s.isPressed(k) {
			return time.Time{}, false
		}
	}
	if len(s.history) == 0 {
		return time.Time{}, false
	}

	latest := make(map[string]time.Time, len(keys))
	for i := len(s.history) - 1; i >= 0; i-- {
		p := s.history[i]
		if _, seen := latest[p.Key]; seen {
			continue
		}
		if contains(keys, p.Key) {
			latest[p.Key] = p.Time
			if len(latest) == len(keys) {
				break
			}
		}
	}
	// A held key that aged out of the history blocks the combo.
	if len(latest) != len(keys) {
		return time.Time{}, false
	}

	prev := latest[keys[0]]
	for _, k := range keys[1:] {
		t := latest[k]
		if t.Before(prev) {
			return time.Time{}, false
		}
		if t.Sub(prev) > maxInterval {
			return time.Time{}, false
		}
		prev = t
	}
	return prev, true
}

func (s *keyState) last() (string, bool) {
	if len(s.history) == 0 {
		return "", false
	}
	return s.history[len(s.history)-1].Key, true
}

func (s *keyState) historySnapshot() []Press {
	out := make([]Press, len(s.history))
	copy(out, s.history)
	return out
}

func (s *keyState) clearHistory() {
	s.history = s.history[:0]
}

func (s *keyState) reset() {
	s.pressed = make(map[string]struct{})
	s.history = s.history[:0]
}

func contains(keys []string, name string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}
