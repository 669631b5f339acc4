package entitycache

import (
	"fmt"
	"runtime/debug"
)

// Execute runs op and turns its faults into outcomes. A returned error or a
// panic is a fault: onFault (if non-nil) sees it first, then Execute returns
// Fail(0, fault). Otherwise op's outcome is returned as is, including failed
// ones. A panic inside onFault is swallowed so it cannot mask the fault.
func Execute[T any](op func() (Outcome[T], error), onFault func(error)) Outcome[T] {
	out, fault := capture(op)
	if fault == nil {
		return out
	}
	if onFault != nil {
		func() {
			defer func() { _ = recover() }()
			onFault(fault)
		}()
	}
	return Fail[T](0, fault)
}

func capture[T any](op func() (Outcome[T], error)) (out Outcome[T], fault error) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{}
			fault = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return op()
}

// Guard reports failed remote calls: one log record and one user
// notification per failure, nothing on success.
type Guard struct {
	log    Logger
	notify Notifier
}

// NewGuard returns a Guard. nil arguments fall back to no-ops.
func NewGuard(log Logger, n Notifier) *Guard {
	if log == nil {
		log = NopLogger{}
	}
	if n == nil {
		n = NopNotifier{}
	}
	return &Guard{log: log, notify: n}
}

// Run executes op through Execute and reports its failure exactly once.
// action is a gerund phrase naming the call ("fetching instance"); f is
// attached to the log record, and f["id"] (if set) to the notification.
func Run[T any](g *Guard, action string, f Fields, op func() (Outcome[T], error)) Outcome[T] {
	faulted := false
	out := Execute(op, func(err error) {
		faulted = true
		g.report(action, f, 0, err)
	})
	if !out.OK() && !faulted {
		g.report(action, f, out.status, out.err)
	}
	return out
}

// Reject reports err (typically a *model.ValidationError) and returns it as
// Fail(0, err) without running anything.
func Reject[T any](g *Guard, action string, f Fields, err error) Outcome[T] {
	g.report(action, f, 0, err)
	return Fail[T](0, err)
}

func (g *Guard) report(action string, f Fields, status int, err error) {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	lf := f.with("op", action, "status", status, "err", detail, "class", string(Classify(err)))
	if pe, ok := err.(*PanicError); ok {
		lf["stack"] = string(pe.Stack)
	}
	if status >= 400 && status < 500 {
		g.log.Warn("remote call failed", lf)
	} else {
		g.log.Error("remote call failed", lf)
	}

	subject := action
	if id, ok := f["id"]; ok {
		subject = fmt.Sprintf("%s '%v'", action, id)
	}
	g.notify.Show(fmt.Sprintf("Error while %s. Error: %s", subject, detail))
}
