package events

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"flowsheet/internal/logger"
)

const component = "EventRegistry"

// Event types carried by bindings.
const (
	EventButton = "button"
	EventKey    = "key"
	EventCombo  = "combo"
	EventCustom = "custom"
)

// Callback is an application method wired to a widget, key or combo.
type Callback func() error

// Widget is anything with an assignable invoke slot.
type Widget interface {
	SetInvoke(fn func() error)
}

// Sink receives the info line logged before each callback. A nil Sink turns
// logging off.
type Sink interface {
	LogInfo(message string)
	LogError(message string)
}

// Binding is a pending handler: the callback plus how to log it.
type Binding struct {
	EventType string
	Target    string
	Name      string
	Callback  Callback
	Template  Template
	// Fields are extra template values, available as "{name}".
	Fields map[string]any
}

type target struct {
	widget  Widget
	pending *Binding
}

// Registry maps symbolic target ids to widgets and handlers and wires them
// together once both halves are present, in either arrival order.
type Registry struct {
	mu      sync.Mutex
	sink    Sink
	logger  logger.Logger
	targets map[string]*target
	menus   map[string]map[int]Widget
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for registry diagnostics such as rebinding
// and template failures.
func WithLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger.OrNoOp(l)
	}
}

// NewRegistry creates an empty registry logging events to sink.
func NewRegistry(sink Sink, opts ...RegistryOption) *Registry {
	r := &Registry{
		sink:    sink,
		logger:  logger.NoOpLogger{},
		targets: make(map[string]*target),
		menus:   make(map[string]map[int]Widget),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BindHandler stores b as the pending handler for targetID and, when a
// widget is already registered there, wires it immediately.
func (r *Registry) BindHandler(targetID string, b Binding) error {
	if targetID == "" {
		return fmt.Errorf("%w: empty target id", ErrInvalidArgument)
	}
	if b.Callback == nil {
		return fmt.Errorf("%w: nil callback for %q", ErrInvalidArgument, targetID)
	}
	b = r.complete(targetID, b)

	r.mu.Lock()
	t := r.target(targetID)
	replaced := t.pending != nil
	t.pending = &b
	w := t.widget
	r.mu.Unlock()

	if replaced {
		r.logger.Warning(component, "handler replaced", map[string]interface{}{
			"target":  targetID,
			"handler": b.Name,
		})
	}
	if w != nil {
		r.wire(w, b)
	}
	return nil
}

// BindWidget stores w under targetID and, when a handler is pending there,
// wires it immediately.
func (r *Registry) BindWidget(targetID string, w Widget) error {
	if targetID == "" {
		return fmt.Errorf("%w: empty target id", ErrInvalidArgument)
	}
	if isNil(w) {
		return fmt.Errorf("%w: nil widget for %q", ErrInvalidArgument, targetID)
	}

	r.mu.Lock()
	t := r.target(targetID)
	replaced := t.widget != nil
	t.widget = w
	var pending *Binding
	if t.pending != nil {
		b := *t.pending
		pending = &b
	}
	r.mu.Unlock()

	if replaced {
		r.logger.Warning(component, "widget replaced", map[string]interface{}{
			"target": targetID,
		})
	}
	if pending != nil {
		r.wire(w, *pending)
	}
	return nil
}

// MenuTargetID is the composite id of a menu button.
func MenuTargetID(menuID string, index int) string {
	return fmt.Sprintf("%s_%d", menuID, index)
}

// RegisterMenu declares a menu without buttons.
func (r *Registry) RegisterMenu(menuID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.menus[menuID]; !ok {
		r.menus[menuID] = make(map[int]Widget)
	}
}

// RegisterMenuButton binds one menu button under "<menuID>_<index>".
func (r *Registry) RegisterMenuButton(menuID string, index int, w Widget) error {
	if menuID == "" {
		return fmt.Errorf("%w: empty menu id", ErrInvalidArgument)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative menu index %d", ErrInvalidArgument, index)
	}
	if isNil(w) {
		return fmt.Errorf("%w: nil widget for menu %q index %d", ErrInvalidArgument, menuID, index)
	}

	r.mu.Lock()
	if _, ok := r.menus[menuID]; !ok {
		r.menus[menuID] = make(map[int]Widget)
	}
	r.menus[menuID][index] = w
	r.mu.Unlock()

	return r.BindWidget(MenuTargetID(menuID, index), w)
}

// RegisterMenuButtons registers every button of a menu by position. It is
// equivalent to calling RegisterMenuButton for each index.
func (r *Registry) RegisterMenuButtons(menuID string, buttons []Widget) error {
	r.RegisterMenu(menuID)
	for i, w := range buttons {
		if err := r.RegisterMenuButton(menuID, i, w); err != nil {
			return err
		}
	}
	return nil
}

// MenuButton returns the widget registered at a menu position.
func (r *Registry) MenuButton(menuID string, index int) (Widget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.menus[menuID][index]
	return w, ok
}

// Execute logs the binding's message and runs its callback. fields are
// merged over b.Fields for the template. A template that fails to resolve,
// or panics, is replaced by FallbackMessage. The callback's error is
// returned unchanged.
func (r *Registry) Execute(b Binding, fields map[string]any) error {
	if b.Callback == nil {
		return fmt.Errorf("%w: nil callback for %q", ErrInvalidArgument, b.Target)
	}

	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink.LogInfo(r.message(b, fields))
	}
	return b.Callback()
}

func (r *Registry) message(b Binding, fields map[string]any) string {
	tmpl := b.Template
	if tmpl == nil {
		tmpl = defaultTemplate(b.EventType)
	}
	if tmpl == nil {
		return FallbackMessage(b.EventType, b.Name)
	}

	msg, err := resolve(tmpl, LogContext{
		FuncName:  b.Name,
		Target:    b.Target,
		EventType: b.EventType,
		Fields:    mergeFields(b.Fields, fields),
	})
	if err != nil {
		r.logger.Warning(component, "log template failed, using default message", map[string]interface{}{
			"target": b.Target,
			"error":  err.Error(),
		})
		return FallbackMessage(b.EventType, b.Name)
	}
	return msg
}

func resolve(tmpl Template, ctx LogContext) (msg string, err error) {
	defer func() {
		if p := recover(); p != nil {
			msg, err = "", fmt.Errorf("%w: template panicked: %v", ErrResolution, p)
		}
	}()
	return tmpl.Resolve(ctx)
}

func mergeFields(base, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return base
	}
	if len(base) == 0 {
		return extra
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// TargetInfo describes one registry entry.
type TargetInfo struct {
	ID         string
	EventType  string
	HasWidget  bool
	HasHandler bool
}

// Targets lists every registered target sorted by id.
func (r *Registry) Targets() []TargetInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TargetInfo, 0, len(r.targets))
	for id, t := range r.targets {
		info := TargetInfo{ID: id, HasWidget: t.widget != nil, HasHandler: t.pending != nil}
		if t.pending != nil {
			info.EventType = t.pending.EventType
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear drops every pending handler, widget and menu.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = make(map[string]*target)
	r.menus = make(map[string]map[int]Widget)
}

func (r *Registry) target(id string) *target {
	t, ok := r.targets[id]
	if !ok {
		t = &target{}
		r.targets[id] = t
	}
	return t
}

// record keeps b as the handler of a key or combo target so Targets lists
// it. Keys have no widget to wire.
func (r *Registry) record(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target(b.Target).pending = &b
}

func (r *Registry) wire(w Widget, b Binding) {
	w.SetInvoke(func() error {
		return r.Execute(b, nil)
	})
	r.logger.Debug(component, "handler bound", map[string]interface{}{
		"target":  b.Target,
		"handler": b.Name,
	})
}

func (r *Registry) complete(targetID string, b Binding) Binding {
	if b.Target == "" {
		b.Target = targetID
	}
	if b.EventType == "" {
		b.EventType = EventButton
	}
	if b.Name == "" {
		b.Name = FuncName(b.Callback)
	}
	return b
}

// isNil also catches typed nil pointers inside the interface.
func isNil(w Widget) bool {
	if w == nil {
		return true
	}
	v := reflect.ValueOf(w)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// FuncName derives a short display name for a function value, such as
// "Application.quit" for a method value.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)
	return name
}

// Widgets converts a typed widget slice for RegisterMenuButtons.
func Widgets[W Widget](ws []W) []Widget {
	out := make([]Widget, len(ws))
	for i, w := range ws {
		out[i] = w
	}
	return out
}
