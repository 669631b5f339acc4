package entitycache

// Hooks are lightweight callbacks for cache events.
// Implementations MUST be cheap and non-blocking; the caches call them while
// holding their commit lock.
type Hooks interface {
	// Served from cache / went to the backend. scope is "definitions" or "instances".
	Hit(scope string)
	Miss(scope string)

	// A create path found the new key already cached. The entry was replaced,
	// but this is a contract violation worth alerting on.
	DuplicateKey(scope, key string)

	// A remote read finished after its scope was invalidated; its result was
	// returned to the caller but not cached.
	StaleWriteDropped(scope, key string)

	// A full group refresh replaced a group's membership.
	GroupReplaced(group string, kept, dropped int)

	// A group was evicted (definition deleted).
	GroupEvicted(group string, count int)

	// GenStore snapshot or bump failed. op ∈ {"snapshot", "bump"}.
	GenStoreError(op string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) Hit(string)                       {}
func (NopHooks) Miss(string)                      {}
func (NopHooks) DuplicateKey(string, string)      {}
func (NopHooks) StaleWriteDropped(string, string) {}
func (NopHooks) GroupReplaced(string, int, int)   {}
func (NopHooks) GroupEvicted(string, int)         {}
func (NopHooks) GenStoreError(string, error)      {}

// Combine fans every event out to hs in order.
func Combine(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

type multiHooks []Hooks

func (m multiHooks) Hit(s string) {
	for _, h := range m {
		h.Hit(s)
	}
}

func (m multiHooks) Miss(s string) {
	for _, h := range m {
		h.Miss(s)
	}
}

func (m multiHooks) DuplicateKey(s, k string) {
	for _, h := range m {
		h.DuplicateKey(s, k)
	}
}

func (m multiHooks) StaleWriteDropped(s, k string) {
	for _, h := range m {
		h.StaleWriteDropped(s, k)
	}
}

func (m multiHooks) GroupReplaced(g string, kept, dropped int) {
	for _, h := range m {
		h.GroupReplaced(g, kept, dropped)
	}
}

func (m multiHooks) GroupEvicted(g string, n int) {
	for _, h := range m {
		h.GroupEvicted(g, n)
	}
}

func (m multiHooks) GenStoreError(op string, err error) {
	for _, h := range m {
		h.GenStoreError(op, err)
	}
}
