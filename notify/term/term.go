// Package term shows entitycache notifications on a terminal.
package term

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/unkn0wn-root/entitycache"
)

// Notifier writes each message as one red line prefixed with "✗".
// Output is plain when NO_COLOR is set or w is not a terminal.
type Notifier struct {
	mu  sync.Mutex
	w   io.Writer
	red *color.Color
}

var _ entitycache.Notifier = (*Notifier)(nil)

// New writes to w; nil means stderr.
func New(w io.Writer) *Notifier {
	if w == nil {
		w = os.Stderr
	}
	return &Notifier{w: w, red: color.New(color.FgRed, color.Bold)}
}

// Plain disables colors for this notifier only.
func (n *Notifier) Plain() *Notifier {
	n.red.DisableColor()
	return n
}

func (n *Notifier) Show(message string) {
	msg := strings.TrimRight(message, "\n")
	if !strings.HasPrefix(msg, "✗") {
		msg = "✗ " + msg
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = n.red.Fprintln(n.w, msg)
}
