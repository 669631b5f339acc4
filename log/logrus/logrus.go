// Package logrus adapts logrus to entitycache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

// Logger writes through any logrus.FieldLogger (*Logger or *Entry).
// An error stored under "err" becomes the entry's logrus.ErrorKey.
type Logger struct{ L logrus.FieldLogger }

func New(l logrus.FieldLogger) Logger {
	return Logger{L: l.WithField("component", "entitycache")}
}

func (l Logger) Debug(msg string, f entitycache.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f entitycache.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f entitycache.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f entitycache.Fields) { l.entry(f).Error(msg) }

func (l Logger) entry(f entitycache.Fields) logrus.FieldLogger {
	if len(f) == 0 {
		return l.L
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			if err, ok := v.(error); ok {
				lf[logrus.ErrorKey] = err
				continue
			}
		}
		lf[k] = v
	}
	return l.L.WithFields(lf)
}
