package cache

import "github.com/imamik/cosmoclear/internal/resource"

// Event reports a change of cached data. A nil Node means the whole tree
// changed, otherwise only the subtree below Node did.
type Event struct {
	Node *resource.Node
}

// WholeTree reports whether the event covers the entire tree.
func (e Event) WholeTree() bool { return e.Node == nil }

// Subscribe registers fn for change events. Handlers run synchronously on
// the goroutine that caused the change and must not block. The returned
// function removes the subscription.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
