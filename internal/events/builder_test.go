package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowsheet/internal/keyboard"
)

type fakeKeys struct {
	keys   map[string]keyboard.HandlerFunc
	combos map[string]keyboard.HandlerFunc
	fail   error
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{
		keys:   make(map[string]keyboard.HandlerFunc),
		combos: make(map[string]keyboard.HandlerFunc),
	}
}

func (k *fakeKeys) AddKeyHandler(name string, fn keyboard.HandlerFunc) (keyboard.HandlerID, error) {
	if k.fail != nil {
		return "", k.fail
	}
	k.keys[name] = fn
	return keyboard.HandlerID("k-" + name), nil
}

func (k *fakeKeys) AddCombo(keys []string, fn keyboard.HandlerFunc) (keyboard.HandlerID, error) {
	if k.fail != nil {
		return "", k.fail
	}
	id := keyboard.ComboID(keys)
	k.combos[id] = fn
	return keyboard.HandlerID("c-" + id), nil
}

func TestBuilderFinalize(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	keys := newFakeKeys()
	var calls []string
	record := func(name string) Callback {
		return func() error { calls = append(calls, name); return nil }
	}

	b := NewBuilder().
		OnButton("exit_btn", record("exit"), nil).
		OnMenuButton("main", 0, record("menu0"), nil).
		OnKey("F", record("f"), nil).
		OnKey("ctrl+q", record("quit"), Text("Quit via {target} ({reason})")).
		With(map[string]any{"reason": "shortcut"}).
		OnCombo([]string{"Left Shift", "a"}, record("shift-a"), nil)

	intents := b.Intents()
	require.Len(t, intents, 5)
	assert.Equal(t, EventCombo, intents[3].Binding.EventType)
	assert.Equal(t, []string{"ctrl", "q"}, intents[3].Keys)

	require.NoError(t, b.Finalize(r, keys))

	exit := &fakeWidget{}
	require.NoError(t, r.BindWidget("exit_btn", exit))
	menu := []*fakeWidget{{}}
	require.NoError(t, r.RegisterMenuButtons("main", Widgets(menu)))

	require.NoError(t, exit.Click())
	require.NoError(t, menu[0].Click())
	require.Contains(t, keys.keys, "F")
	require.NoError(t, keys.keys["F"]())
	require.Contains(t, keys.combos, "ctrl+q")
	require.NoError(t, keys.combos["ctrl+q"]())
	require.Contains(t, keys.combos, "shift+a")
	require.NoError(t, keys.combos["shift+a"]())

	assert.Equal(t, []string{"exit", "menu0", "f", "quit", "shift-a"}, calls)
	assert.Equal(t, []TargetInfo{
		{ID: "ctrl+q", EventType: EventCombo, HasHandler: true},
		{ID: "exit_btn", EventType: EventButton, HasWidget: true, HasHandler: true},
		{ID: "f", EventType: EventKey, HasHandler: true},
		{ID: "main_0", EventType: EventButton, HasWidget: true, HasHandler: true},
		{ID: "shift+a", EventType: EventCombo, HasHandler: true},
	}, r.Targets())
	assert.Equal(t, []string{
		"Button 'exit_btn' clicked",
		"Menu 'main' button 0 clicked",
		"Key 'f' pressed",
		"Quit via ctrl+q (shortcut)",
		"Combo 'shift+a' pressed",
	}, sink.Infos())
}

func TestBuilderFinalizeErrors(t *testing.T) {
	r := NewRegistry(nil)
	b := NewBuilder().
		OnButton("ok", func() error { return nil }, nil).
		OnKey("f", func() error { return nil }, nil).
		OnButton("", func() error { return nil }, nil)

	err := b.Finalize(r, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoKeyBinder)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	targets := r.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, "ok", targets[0].ID)

	keys := newFakeKeys()
	keys.fail = keyboard.ErrInvalidArgument
	err = NewBuilder().OnCombo([]string{"a"}, func() error { return nil }, nil).Finalize(r, keys)
	assert.ErrorIs(t, err, keyboard.ErrInvalidArgument)
}

func TestBuilderWithKeyboardHelper(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	h := keyboard.New(keyboard.WithPollInterval(time.Hour))
	h.Start()
	t.Cleanup(h.Stop)

	fired := 0
	require.NoError(t, NewBuilder().OnKey("x", func() error { fired++; return nil }, nil).Finalize(r, h))

	h.KeyDown("X")
	assert.Equal(t, 1, fired)
	assert.Equal(t, []string{"Key 'x' pressed"}, sink.Infos())
}

func TestWhen(t *testing.T) {
	enabled := false
	calls := 0
	cb := When(func() bool { return enabled }, func() error { calls++; return nil })

	require.NoError(t, cb())
	assert.Equal(t, 0, calls)
	enabled = true
	require.NoError(t, cb())
	assert.Equal(t, 1, calls)
}

func TestRetry(t *testing.T) {
	sink := &recordingSink{}
	flaky := errors.New("flaky")
	attempts := 0
	cb := Retry(3, time.Millisecond, sink, func() error {
		attempts++
		if attempts < 3 {
			return flaky
		}
		return nil
	})

	require.NoError(t, cb())
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{
		"event handler failed, retry 1: flaky",
		"event handler failed, retry 2: flaky",
	}, sink.Infos())

	attempts = 0
	always := Retry(2, 0, nil, func() error { attempts++; return flaky })
	assert.ErrorIs(t, always(), flaky)
	assert.Equal(t, 2, attempts)
}
