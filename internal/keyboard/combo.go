package keyboard

import "time"

type combo struct {
	id        string
	keys      []string
	handlers  []registration
	lastFired time.Time
}

// AddCombo attaches fn to an ordered key combination. The combo needs at
// least two distinct keys; order is significant. Several handlers may share
// one combo and all of them fire on a match.
func (h *Helper) AddCombo(keys []string, fn HandlerFunc) (HandlerID, error) {
	normalized, err := normalizeCombo(keys)
	if err != nil {
		return "", err
	}
	if fn == nil {
		return "", invalidArgument("nil handler for combo %q", ComboID(normalized))
	}

	id := newHandlerID()
	cid := ComboID(normalized)

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.comboIndex[cid]
	if !ok {
		c = &combo{id: cid, keys: normalized}
		h.comboIndex[cid] = c
		h.combos = append(h.combos, c)
	}
	c.handlers = append(c.handlers, registration{id: id, fn: fn})
	return id, nil
}

// RemoveCombo detaches one combo handler and drops the combo once no
// handlers remain. It reports whether the handler was found.
func (h *Helper) RemoveCombo(keys []string, id HandlerID) bool {
	normalized, err := normalizeCombo(keys)
	if err != nil {
		return false
	}
	cid := ComboID(normalized)

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.comboIndex[cid]
	if !ok {
		return false
	}
	for i, reg := range c.handlers {
		if reg.id != id {
			continue
		}
		c.handlers = append(c.handlers[:i:i], c.handlers[i+1:]...)
		if len(c.handlers) == 0 {
			h.dropCombo(cid)
		}
		return true
	}
	return false
}

func (h *Helper) dropCombo(cid string) {
	delete(h.comboIndex, cid)
	for i, c := range h.combos {
		if c.id == cid {
			h.combos = append(h.combos[:i:i], h.combos[i+1:]...)
			return
		}
	}
}

// Combos returns the identifiers of registered combos in registration
// order.
func (h *Helper) Combos() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.combos))
	for i, c := range h.combos {
		out[i] = c.id
	}
	return out
}

// IsComboPressed reports whether keys are held and were pressed in order
// within the max interval. It does not fire handlers.
func (h *Helper) IsComboPressed(keys ...string) bool {
	normalized, err := normalizeCombo(keys)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.state.match(normalized, h.maxInterval)
	return ok
}

type firing struct {
	id       string
	handlers []registration
}

// CheckCombos runs one poll cycle: it prunes stale history and fires the
// handlers of every satisfied combo. A combo fires once per press of its
// final key; holding the keys does not repeat it.
func (h *Helper) CheckCombos() {
	h.mu.Lock()
	h.state.prune(h.now(), h.maxInterval)
	if len(h.combos) == 0 || len(h.state.pressed) == 0 {
		h.mu.Unlock()
		return
	}

	var fire []firing
	for _, c := range h.combos {
		last, ok := h.state.match(c.keys, h.maxInterval)
		if !ok {
			continue
		}
		if !c.lastFired.IsZero() && !last.After(c.lastFired) {
			continue
		}
		c.lastFired = last
		fire = append(fire, firing{
			id:       c.id,
			handlers: append([]registration(nil), c.handlers...),
		})
	}
	h.mu.Unlock()

	for _, f := range fire {
		for _, reg := range f.handlers {
			h.invoke(KindCombo, f.id, reg)
		}
	}
}
