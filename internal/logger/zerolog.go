package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologAdapter satisfies Logger on top of a zerolog.Logger. The component
// goes into a "component" field and fields are attached as-is.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog writes timestamped events at or above level to w.
func NewZerolog(w io.Writer, level zerolog.Level) *ZerologAdapter {
	return &ZerologAdapter{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// NewConsoleLogger is a human-readable logger for use before a run log
// exists.
func NewConsoleLogger(w io.Writer, level zerolog.Level) *ZerologAdapter {
	return NewZerolog(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	tagged(z.logger.Info(), component, fields).Msg(message)
}

// Error uses err's text as the message.
func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	if err == nil {
		return
	}
	tagged(z.logger.Error(), component, fields).Msg(err.Error())
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	tagged(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	tagged(z.logger.Debug(), component, fields).Msg(message)
}

func tagged(e *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	return e.Str("component", component)
}
