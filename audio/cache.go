package audio

// handleCache maps identities to middleware handles. It exposes
// insert-if-absent, lookup and explicit release so eviction does not
// require reworking call sites. Not goroutine safe; the engine's lock
// covers it.
type handleCache[K comparable, H any] struct {
	m map[K]H
}

func newHandleCache[K comparable, H any]() *handleCache[K, H] {
	return &handleCache[K, H]{m: make(map[K]H)}
}

// insert adds h under k and reports whether it was absent. An existing
// entry is left untouched.
func (c *handleCache[K, H]) insert(k K, h H) bool {
	if _, ok := c.m[k]; ok {
		return false
	}
	c.m[k] = h
	return true
}

func (c *handleCache[K, H]) lookup(k K) (H, bool) {
	h, ok := c.m[k]
	return h, ok
}

// release removes and returns the handle under k.
func (c *handleCache[K, H]) release(k K) (H, bool) {
	h, ok := c.m[k]
	if ok {
		delete(c.m, k)
	}
	return h, ok
}

// drain empties the cache and returns every handle, for teardown.
func (c *handleCache[K, H]) drain() []H {
	out := make([]H, 0, len(c.m))
	for k, h := range c.m {
		out = append(out, h)
		delete(c.m, k)
	}
	return out
}
