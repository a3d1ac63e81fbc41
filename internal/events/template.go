package events

import (
	"fmt"
	"strings"
)

// LogContext is what a log template can refer to.
type LogContext struct {
	FuncName  string
	Target    string
	EventType string
	Fields    map[string]any
}

func (c LogContext) lookup(name string) (any, bool) {
	switch name {
	case "func_name":
		return c.FuncName, true
	case "target":
		return c.Target, true
	case "event_type":
		return c.EventType, true
	}
	v, ok := c.Fields[name]
	return v, ok
}

// Template produces the log message for an event.
type Template interface {
	Resolve(ctx LogContext) (string, error)
}

// Text is a static message with named placeholders such as "{target}" or
// "{func_name}". "{{" and "}}" produce literal braces. Unknown names and
// unbalanced braces are resolution failures.
type Text string

func (t Text) Resolve(ctx LogContext) (string, error) {
	s := string(t)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed placeholder in %q", ErrResolution, s)
			}
			name := s[i+1 : i+1+end]
			v, ok := ctx.lookup(name)
			if !ok {
				return "", fmt.Errorf("%w: unknown placeholder %q", ErrResolution, name)
			}
			fmt.Fprint(&b, v)
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' in %q", ErrResolution, s)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// TemplateFunc computes the message from the call context.
type TemplateFunc func(ctx LogContext) (string, error)

func (f TemplateFunc) Resolve(ctx LogContext) (string, error) {
	return f(ctx)
}

// FallbackMessage is logged when a template fails to resolve.
func FallbackMessage(eventType, funcName string) string {
	return fmt.Sprintf("%s event triggered: %s", eventType, funcName)
}

func defaultTemplate(eventType string) Template {
	switch eventType {
	case EventButton:
		return Text("Button '{target}' clicked")
	case EventKey:
		return Text("Key '{target}' pressed")
	case EventCombo:
		return Text("Combo '{target}' pressed")
	default:
		return nil
	}
}
