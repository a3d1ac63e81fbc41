package keyboard

import "strings"

// AddKeyHandler attaches fn to a single key. Names containing the combo
// separator are rejected; register those with AddCombo.
func (h *Helper) AddKeyHandler(name string, fn HandlerFunc) (HandlerID, error) {
	key, err := singleKeyName(name)
	if err != nil {
		return "", err
	}
	if fn == nil {
		return "", invalidArgument("nil handler for key %q", key)
	}

	id := newHandlerID()
	h.mu.Lock()
	h.keyHandlers[key] = append(h.keyHandlers[key], registration{id: id, fn: fn})
	h.mu.Unlock()
	return id, nil
}

// RemoveKeyHandler detaches one handler. It reports whether the handler was
// found.
func (h *Helper) RemoveKeyHandler(name string, id HandlerID) (bool, error) {
	key, err := singleKeyName(name)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	regs := h.keyHandlers[key]
	for i, reg := range regs {
		if reg.id != id {
			continue
		}
		regs = append(regs[:i:i], regs[i+1:]...)
		if len(regs) == 0 {
			delete(h.keyHandlers, key)
		} else {
			h.keyHandlers[key] = regs
		}
		return true, nil
	}
	return false, nil
}

func singleKeyName(name string) (string, error) {
	if strings.Contains(name, ComboSeparator) {
		return "", invalidArgument("key name %q contains %q; register it as a combo", name, ComboSeparator)
	}
	key := NormalizeName(name)
	if key == "" {
		return "", invalidArgument("empty key name")
	}
	return key, nil
}
