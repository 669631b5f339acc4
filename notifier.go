package entitycache

// Notifier shows a message to the user. It is called once per failed remote
// call and never on success.
type Notifier interface {
	Show(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Show(message string) { f(message) }

type NopNotifier struct{}

func (NopNotifier) Show(string) {}
