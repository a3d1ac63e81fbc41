package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextResolve(t *testing.T) {
	ctx := LogContext{
		FuncName:  "quit",
		Target:    "exit_btn",
		EventType: EventButton,
		Fields:    map[string]any{"count": 3},
	}

	tests := []struct {
		name    string
		text    Text
		want    string
		wantErr bool
	}{
		{name: "plain", text: "hello", want: "hello"},
		{name: "builtin names", text: "{event_type} {target} -> {func_name}", want: "button exit_btn -> quit"},
		{name: "field", text: "n={count}", want: "n=3"},
		{name: "escaped braces", text: "{{literal}}", want: "{literal}"},
		{name: "unknown", text: "{nope}", wantErr: true},
		{name: "unclosed", text: "open {target", wantErr: true},
		{name: "stray close", text: "close }", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.text.Resolve(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultTemplates(t *testing.T) {
	ctx := LogContext{Target: "ctrl+q"}
	msg, err := defaultTemplate(EventCombo).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Combo 'ctrl+q' pressed", msg)

	assert.Nil(t, defaultTemplate(EventCustom))
	assert.Equal(t, "key event triggered: f", FallbackMessage(EventKey, "f"))
}
