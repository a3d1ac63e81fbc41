package keyboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu   sync.Mutex
	base time.Time
	now  time.Time
}

func newFakeClock() *fakeClock {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &fakeClock{base: base, now: base}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// At moves the clock to base+offset seconds.
func (c *fakeClock) At(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.base.Add(time.Duration(seconds * float64(time.Second)))
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingLogger) Info(string, string, map[string]interface{})    {}
func (r *recordingLogger) Warning(string, string, map[string]interface{}) {}
func (r *recordingLogger) Debug(string, string, map[string]interface{})   {}
func (r *recordingLogger) Error(_ string, err error, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingLogger) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

// newManualHelper returns a started helper whose poller never ticks during
// the test, so cycles are driven by CheckCombos.
func newManualHelper(t *testing.T, opts ...Option) (*Helper, *fakeClock, *recordingLogger) {
	t.Helper()
	clock := newFakeClock()
	rec := &recordingLogger{}
	base := []Option{WithClock(clock.Now), WithLogger(rec), WithPollInterval(time.Hour)}
	h := New(append(base, opts...)...)
	h.Start()
	t.Cleanup(h.Stop)
	return h, clock, rec
}

func counter() (HandlerFunc, *atomic.Int32) {
	var n atomic.Int32
	return func() error {
		n.Add(1)
		return nil
	}, &n
}

func TestComboFiresInOrderOnly(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddCombo([]string{"ctrl", "q"}, fn)
	require.NoError(t, err)

	clock.At(0)
	h.KeyDown("ctrl")
	clock.At(0.1)
	h.KeyDown("q")
	clock.At(0.15)
	h.CheckCombos()
	assert.Equal(t, int32(1), calls.Load())

	h.KeyUp("ctrl")
	h.KeyUp("q")

	clock.At(1.0)
	h.KeyDown("q")
	clock.At(1.1)
	h.KeyDown("ctrl")
	clock.At(1.2)
	h.CheckCombos()
	assert.Equal(t, int32(1), calls.Load(), "reverse order must not fire")
}

func TestComboReverseOrderNeverFires(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddCombo([]string{"shift", "a"}, fn)
	require.NoError(t, err)

	clock.At(0)
	h.KeyDown("a")
	clock.At(0.05)
	h.KeyDown("shift")
	clock.At(0.1)
	h.CheckCombos()

	assert.Zero(t, calls.Load())
}

func TestComboGapLargerThanMaxInterval(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddCombo([]string{"ctrl", "s"}, fn)
	require.NoError(t, err)

	clock.At(0)
	h.KeyDown("ctrl")
	clock.At(0.6)
	h.KeyDown("s")
	h.CheckCombos()

	assert.True(t, h.IsPressed("ctrl"))
	assert.True(t, h.IsPressed("s"))
	assert.Zero(t, calls.Load())
}

func TestComboGapCheckedWithoutPrune(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddCombo([]string{"alt", "x"}, fn)
	require.NoError(t, err)

	// IsComboPressed skips pruning, so only the gap check can reject.
	clock.At(0)
	h.KeyDown("alt")
	clock.At(0.7)
	h.KeyDown("x")
	assert.False(t, h.IsComboPressed("alt", "x"))

	require.NoError(t, h.SetMaxInterval(time.Second))
	assert.True(t, h.IsComboPressed("alt", "x"))
	assert.Zero(t, calls.Load(), "queries never fire handlers")
}

func TestComboFiresOncePerPress(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddCombo([]string{"ctrl", "c"}, fn)
	require.NoError(t, err)

	clock.At(0)
	h.KeyDown("ctrl")
	clock.At(0.1)
	h.KeyDown("c")
	for i := 0; i < 3; i++ {
		clock.At(0.15 + float64(i)*0.05)
		h.CheckCombos()
	}
	assert.Equal(t, int32(1), calls.Load(), "held keys fire once")

	h.KeyUp("c")
	clock.At(0.3)
	h.KeyDown("c")
	clock.At(0.35)
	h.CheckCombos()
	assert.Equal(t, int32(2), calls.Load(), "pressing the final key again fires again")
}

func TestComboHandlersIsolated(t *testing.T) {
	h, clock, rec := newManualHelper(t)

	boom := errors.New("boom")
	_, err := h.AddCombo([]string{"ctrl", "q"}, func() error { panic("first handler") })
	require.NoError(t, err)
	second, secondCalls := counter()
	_, err = h.AddCombo([]string{"ctrl", "q"}, second)
	require.NoError(t, err)
	_, err = h.AddCombo([]string{"q", "w"}, func() error { return boom })
	require.NoError(t, err)
	other, otherCalls := counter()
	_, err = h.AddCombo([]string{"ctrl", "w"}, other)
	require.NoError(t, err)

	clock.At(0)
	h.KeyDown("ctrl")
	clock.At(0.1)
	h.KeyDown("q")
	clock.At(0.2)
	h.KeyDown("w")
	clock.At(0.25)

	require.NotPanics(t, h.CheckCombos)
	assert.Equal(t, int32(1), secondCalls.Load())
	assert.Equal(t, int32(1), otherCalls.Load())

	errs := rec.Errors()
	require.Len(t, errs, 2)

	var herr *HandlerError
	require.ErrorAs(t, errs[0], &herr)
	assert.Equal(t, KindCombo, herr.Kind)
	assert.Equal(t, "ctrl+q", herr.Target)
	var perr *PanicError
	assert.ErrorAs(t, errs[0], &perr)

	assert.ErrorIs(t, errs[1], boom)
}

func TestAddComboValidation(t *testing.T) {
	h := New()
	fn, _ := counter()

	_, err := h.AddCombo([]string{"ctrl"}, fn)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddCombo(nil, fn)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddCombo([]string{"a", "A"}, fn)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddCombo([]string{"ctrl", "q"}, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddCombo([]string{" Left Ctrl ", "Q"}, fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"ctrl+q"}, h.Combos())
}

func TestRemoveCombo(t *testing.T) {
	h, clock, _ := newManualHelper(t)
	first, firstCalls := counter()
	second, secondCalls := counter()

	id1, err := h.AddCombo([]string{"ctrl", "z"}, first)
	require.NoError(t, err)
	id2, err := h.AddCombo([]string{"ctrl", "z"}, second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	assert.True(t, h.RemoveCombo([]string{"ctrl", "z"}, id1))
	assert.False(t, h.RemoveCombo([]string{"ctrl", "z"}, id1))
	assert.Equal(t, []string{"ctrl+z"}, h.Combos())

	clock.At(0)
	h.KeyDown("ctrl")
	clock.At(0.1)
	h.KeyDown("z")
	h.CheckCombos()
	assert.Zero(t, firstCalls.Load())
	assert.Equal(t, int32(1), secondCalls.Load())

	assert.True(t, h.RemoveCombo([]string{"right ctrl", "z"}, id2))
	assert.Empty(t, h.Combos())
	assert.False(t, h.RemoveCombo([]string{"ctrl"}, id2))
}

func TestSetMaxInterval(t *testing.T) {
	h := New()
	require.NoError(t, h.SetMaxInterval(2*time.Second))

	assert.ErrorIs(t, h.SetMaxInterval(0), ErrInvalidArgument)
	assert.ErrorIs(t, h.SetMaxInterval(-time.Second), ErrInvalidArgument)
	assert.Equal(t, 2*time.Second, h.MaxInterval())
}

func TestHistoryKeepsNewestTwenty(t *testing.T) {
	h, clock, _ := newManualHelper(t, WithMaxInterval(time.Hour))
	fn, calls := counter()
	_, err := h.AddCombo([]string{"a", "b"}, fn)
	require.NoError(t, err)

	keys := "abcdefghijklmnopqrstuvwxy"
	for i, r := range keys {
		clock.At(float64(i) * 0.01)
		h.KeyDown(string(r))
	}

	history := h.History()
	require.Len(t, history, DefaultHistorySize)
	assert.Equal(t, "f", history[0].Key)
	assert.Equal(t, "y", history[len(history)-1].Key)

	last, ok := h.LastKey()
	require.True(t, ok)
	assert.Equal(t, "y", last)

	// a and b are still held but aged out of the history.
	assert.True(t, h.IsPressed("a"))
	h.CheckCombos()
	assert.Zero(t, calls.Load())
}

func TestHistorySizeOption(t *testing.T) {
	h, _, _ := newManualHelper(t, WithHistorySize(3), WithMaxInterval(time.Hour))
	for _, k := range []string{"a", "b", "c", "d"} {
		h.KeyDown(k)
	}
	history := h.History()
	require.Len(t, history, 3)
	assert.Equal(t, "b", history[0].Key)
}

func TestPruneKeepsPressedSet(t *testing.T) {
	h, clock, _ := newManualHelper(t)

	clock.At(0)
	h.KeyDown("shift")
	clock.At(5)
	h.CheckCombos()

	assert.Empty(t, h.History())
	assert.True(t, h.IsPressed("shift"))
}

func TestKeyHandlerRisingEdge(t *testing.T) {
	h, _, _ := newManualHelper(t)
	fn, calls := counter()
	_, err := h.AddKeyHandler("Space", fn)
	require.NoError(t, err)

	h.KeyDown("space")
	h.KeyDown("space")
	h.KeyDown("SPACE")
	assert.Equal(t, int32(1), calls.Load(), "held key fires once")

	h.KeyUp("space")
	h.KeyDown("space")
	assert.Equal(t, int32(2), calls.Load())
}

func TestKeyHandlersRunInOrderPastFailures(t *testing.T) {
	h, _, rec := newManualHelper(t)

	var order []string
	_, err := h.AddKeyHandler("f1", func() error {
		order = append(order, "first")
		panic("first")
	})
	require.NoError(t, err)
	_, err = h.AddKeyHandler("f1", func() error {
		order = append(order, "second")
		return errors.New("second")
	})
	require.NoError(t, err)
	_, err = h.AddKeyHandler("f1", func() error {
		order = append(order, "third")
		return nil
	})
	require.NoError(t, err)

	h.KeyDown("F1")

	assert.Equal(t, []string{"first", "second", "third"}, order)
	errs := rec.Errors()
	require.Len(t, errs, 2)
	var herr *HandlerError
	require.ErrorAs(t, errs[1], &herr)
	assert.Equal(t, KindKey, herr.Kind)
	assert.Equal(t, "f1", herr.Target)
}

func TestAddKeyHandlerValidation(t *testing.T) {
	h := New()
	fn, _ := counter()

	_, err := h.AddKeyHandler("ctrl+c", fn)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddKeyHandler("  ", fn)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.AddKeyHandler("a", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRemoveKeyHandler(t *testing.T) {
	h, _, _ := newManualHelper(t)
	fn, calls := counter()
	id, err := h.AddKeyHandler("a", fn)
	require.NoError(t, err)

	removed, err := h.RemoveKeyHandler("A", id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = h.RemoveKeyHandler("a", id)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = h.RemoveKeyHandler("a+b", id)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	h.KeyDown("a")
	assert.Zero(t, calls.Load())
}

func TestNormalizationAndFiltering(t *testing.T) {
	h, _, _ := newManualHelper(t)

	h.KeyDown("Left Ctrl")
	h.KeyDown("num 5")
	h.KeyDown("Page Up")
	h.KeyDown("volume up")
	h.KeyDown("")

	assert.True(t, h.IsPressed("ctrl"))
	assert.True(t, h.IsPressed("right ctrl"))
	assert.True(t, h.IsPressed("5"))
	assert.True(t, h.IsPressed("pageup"))
	assert.False(t, h.IsPressed("volume up"))
	assert.ElementsMatch(t, []string{"ctrl", "5", "pageup"}, h.Pressed())
	assert.Len(t, h.History(), 3)

	h.KeyUp("right ctrl")
	h.KeyUp("right ctrl")
	assert.False(t, h.IsPressed("ctrl"))
}

func TestStartStopLifecycle(t *testing.T) {
	h := New(WithPollInterval(time.Hour))
	assert.False(t, h.Running())

	h.KeyDown("a")
	assert.False(t, h.IsPressed("a"), "transitions are ignored while stopped")

	h.Start()
	h.Start()
	assert.True(t, h.Running())

	h.KeyDown("a")
	assert.True(t, h.IsPressed("a"))

	h.Stop()
	assert.False(t, h.Running())
	assert.Empty(t, h.Pressed())
	assert.Empty(t, h.History())
	h.Stop()

	h.Start()
	defer h.Stop()
	assert.Empty(t, h.Pressed())
	h.KeyDown("a")
	assert.True(t, h.IsPressed("a"))
}

func TestHelpersAreIndependent(t *testing.T) {
	a, _, _ := newManualHelper(t)
	b, _, _ := newManualHelper(t)

	a.KeyDown("x")
	assert.True(t, a.IsPressed("x"))
	assert.False(t, b.IsPressed("x"))
}

func TestPollLoopFiresCombo(t *testing.T) {
	h := New(WithPollInterval(5 * time.Millisecond))
	h.Start()
	defer h.Stop()

	fn, calls := counter()
	_, err := h.AddCombo([]string{"ctrl", "q"}, fn)
	require.NoError(t, err)

	h.KeyDown("ctrl")
	h.KeyDown("q")

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollLoopSurvivesPanics(t *testing.T) {
	rec := &recordingLogger{}
	h := New(WithPollInterval(5*time.Millisecond), WithLogger(rec))
	h.Start()
	defer h.Stop()

	var calls atomic.Int32
	_, err := h.AddCombo([]string{"ctrl", "p"}, func() error {
		calls.Add(1)
		panic("handler blew up")
	})
	require.NoError(t, err)

	h.KeyDown("ctrl")
	h.KeyDown("p")
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	h.KeyUp("p")
	h.KeyDown("p")
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, rec.Errors())
}

func TestConcurrentKeyTraffic(t *testing.T) {
	h := New(WithPollInterval(time.Millisecond))
	h.Start()
	defer h.Stop()

	fn, _ := counter()
	_, err := h.AddCombo([]string{"a", "b"}, fn)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h.KeyDown("a")
				h.KeyDown("b")
				h.KeyUp("b")
				h.KeyUp("a")
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(h.History()), DefaultHistorySize)
}
