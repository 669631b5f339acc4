// Package zap adapts a *zap.Logger to entitycache.Logger.
package zap

import (
	"slices"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

// Logger writes entitycache records through L. Fields are emitted in key
// order; error values use zap.NamedError so encoders render them as text.
type Logger struct{ L *zap.Logger }

// New returns a Logger tagged with component=entitycache.
func New(l *zap.Logger) Logger {
	return Logger{L: l.With(zap.String("component", "entitycache"))}
}

func (z Logger) Debug(msg string, f entitycache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f entitycache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f entitycache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f entitycache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f entitycache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
