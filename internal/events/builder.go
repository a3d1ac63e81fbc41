package events

import (
	"errors"
	"fmt"
	"strings"

	"flowsheet/internal/keyboard"
)

// KeyBinder is the keyboard side of Finalize; keyboard.Helper satisfies it.
type KeyBinder interface {
	AddKeyHandler(name string, fn keyboard.HandlerFunc) (keyboard.HandlerID, error)
	AddCombo(keys []string, fn keyboard.HandlerFunc) (keyboard.HandlerID, error)
}

// Intent is one declared handler waiting for Finalize.
type Intent struct {
	Binding Binding
	Keys    []string
}

// Builder collects handler intents before any widget exists. Finalize binds
// them in declaration order.
type Builder struct {
	intents []Intent
}

func NewBuilder() *Builder {
	return &Builder{}
}

// OnButton declares the handler of a named button. A nil tmpl logs
// "Button '<name>' clicked".
func (b *Builder) OnButton(name string, cb Callback, tmpl Template) *Builder {
	return b.add(Intent{Binding: Binding{
		EventType: EventButton,
		Target:    name,
		Callback:  cb,
		Template:  tmpl,
	}})
}

// OnMenuButton declares the handler of the index-th button of a menu.
func (b *Builder) OnMenuButton(menuID string, index int, cb Callback, tmpl Template) *Builder {
	if tmpl == nil {
		tmpl = Text(fmt.Sprintf("Menu '%s' button %d clicked", escapeBraces(menuID), index))
	}
	return b.add(Intent{Binding: Binding{
		EventType: EventButton,
		Target:    MenuTargetID(menuID, index),
		Callback:  cb,
		Template:  tmpl,
	}})
}

// OnKey declares a single-key handler. A name joined with "+" is treated as
// a combo.
func (b *Builder) OnKey(key string, cb Callback, tmpl Template) *Builder {
	if strings.Contains(key, keyboard.ComboSeparator) {
		return b.OnCombo(strings.Split(key, keyboard.ComboSeparator), cb, tmpl)
	}
	return b.add(Intent{
		Binding: Binding{
			EventType: EventKey,
			Target:    keyboard.NormalizeName(key),
			Callback:  cb,
			Template:  tmpl,
		},
		Keys: []string{key},
	})
}

// OnCombo declares a combo handler for keys pressed in order.
func (b *Builder) OnCombo(keys []string, cb Callback, tmpl Template) *Builder {
	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = keyboard.NormalizeName(k)
	}
	return b.add(Intent{
		Binding: Binding{
			EventType: EventCombo,
			Target:    keyboard.ComboID(normalized),
			Callback:  cb,
			Template:  tmpl,
		},
		Keys: normalized,
	})
}

// With attaches template fields to the most recently declared intent.
func (b *Builder) With(fields map[string]any) *Builder {
	if n := len(b.intents); n > 0 {
		b.intents[n-1].Binding.Fields = mergeFields(b.intents[n-1].Binding.Fields, fields)
	}
	return b
}

// Intents returns the declared intents in order.
func (b *Builder) Intents() []Intent {
	return append([]Intent(nil), b.intents...)
}

// Finalize binds every intent: button intents become pending handlers in
// the registry, key and combo intents are attached to keys with logging
// through the registry. Every intent is attempted; failures are joined.
func (b *Builder) Finalize(r *Registry, keys KeyBinder) error {
	var errs []error
	for _, in := range b.intents {
		binding := r.complete(in.Binding.Target, in.Binding)

		switch binding.EventType {
		case EventKey, EventCombo:
			if keys == nil {
				errs = append(errs, fmt.Errorf("%w: %s %q", ErrNoKeyBinder, binding.EventType, binding.Target))
				continue
			}
			fn := func() error { return r.Execute(binding, nil) }
			var err error
			if binding.EventType == EventKey {
				_, err = keys.AddKeyHandler(in.Keys[0], fn)
			} else {
				_, err = keys.AddCombo(in.Keys, fn)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("binding %s %q: %w", binding.EventType, binding.Target, err))
				continue
			}
			r.record(binding)
		default:
			if err := r.BindHandler(binding.Target, binding); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *Builder) add(in Intent) *Builder {
	b.intents = append(b.intents, in)
	return b
}

func escapeBraces(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}
