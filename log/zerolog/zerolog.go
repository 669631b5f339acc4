// Package zerolog adapts a zerolog.Logger to entitycache.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "entitycache").Logger()}
}

func (z Logger) Debug(msg string, f entitycache.Fields) { write(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f entitycache.Fields)  { write(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f entitycache.Fields)  { write(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f entitycache.Fields) { write(z.L.Error(), msg, f) }

// write is a no-op for a disabled level (nil event).
func write(e *zerolog.Event, msg string, f entitycache.Fields) {
	if e == nil {
		return
	}
	for k, v := range f {
		if err, ok := v.(error); ok {
			e = e.AnErr(k, err)
			continue
		}
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
