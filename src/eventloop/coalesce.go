package eventloop

import "sync"

// coalescer merges bursts of same-key loop tasks: only the latest function
// posted for a key before the loop gets to it runs.
type coalescer struct {
	mu        sync.Mutex
	pending   map[string]func()
	post      func(func())
	destroyed bool
}

func newCoalescer(post func(func())) *coalescer {
	return &coalescer{pending: map[string]func(){}, post: post}
}

func (c *coalescer) Post(key string, fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	_, queued := c.pending[key]
	c.pending[key] = fn
	c.mu.Unlock()
	if queued {
		return
	}

	c.post(func() {
		c.mu.Lock()
		fn, ok := c.pending[key]
		delete(c.pending, key)
		destroyed := c.destroyed
		c.mu.Unlock()
		if ok && !destroyed {
			fn()
		}
	})
}

func (c *coalescer) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.pending = map[string]func(){}
	c.mu.Unlock()
}
