// Package cache keeps the child lists of the resource tree discovered so far.
//
// Lists are fetched lazily on the first ChildrenOf call for a parent and kept
// until the parent (or an ancestor) is invalidated or the session changes.
// There is no time-based expiry. Concurrent fetches for the same parent are
// collapsed into one remote call.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/imamik/cosmoclear/internal/metrics"
	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/session"
)

// ErrSentinelNode is returned when a placeholder node is used as a parent.
var ErrSentinelNode = errors.New("placeholder nodes have no children")

// rootKey keys the subscription list.
const rootKey = ""

type entry struct {
	level resource.Kind
	nodes []resource.Node
}

// Cache is the per-parent store of child lists.
type Cache struct {
	port    remote.Port
	store   *session.Store
	log     *slog.Logger
	metrics *metrics.Recorder

	mu      sync.RWMutex
	entries map[string]entry
	// generation changes on every full invalidation, epochs on every
	// invalidation of the keyed list. A fetch is stored only when both are
	// unchanged since it started.
	generation uint64
	epochs     map[string]uint64

	flight singleflight.Group

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)

	unsubscribeStore func()
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a cache backed by port. The cache drops everything whenever
// the session held by store changes.
func New(port remote.Port, store *session.Store, opts ...Option) *Cache {
	c := &Cache{
		port:    port,
		store:   store,
		log:     slog.New(slog.DiscardHandler),
		entries: make(map[string]entry),
		epochs:  make(map[string]uint64),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribeStore = store.Subscribe(func(*session.Session) {
		c.InvalidateAll()
	})
	return c
}

// Close detaches the cache from the session store.
func (c *Cache) Close() {
	if c.unsubscribeStore != nil {
		c.unsubscribeStore()
	}
}

// ChildrenOf returns the children of parent, or the subscriptions when parent
// is nil. Fetch failures yield a single InsufficientPermission node and empty
// lists a single NoResourcesFound node; neither placeholder is cached.
//
// Only ErrNotSignedIn, ErrCredentialNotFound and ErrSentinelNode are
// returned as errors.
func (c *Cache) ChildrenOf(ctx context.Context, parent *resource.Node) ([]resource.Node, error) {
	key, level, err := keyFor(parent)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		return []resource.Node{}, nil
	}

	if nodes, ok := c.lookup(key, level); ok {
		c.metrics.ObserveFetch(level.String(), metrics.ResultCached)
		return withPlaceholder(nodes), nil
	}

	if _, err := c.store.Current(); err != nil {
		c.metrics.ObserveFetch(level.String(), metrics.ResultNoSession)
		return nil, err
	}

	c.mu.RLock()
	gen, epoch := c.generation, c.epochs[key]
	c.mu.RUnlock()

	// The flight is shared, so a waiter cancelling must not fail the others.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.flight.Do(key, func() (any, error) {
		nodes, err := c.fetch(fetchCtx, parent)
		if err != nil {
			return nil, err
		}
		c.put(key, level, nodes, gen, epoch)
		return nodes, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrCredentialNotFound) || errors.Is(err, session.ErrNotSignedIn) {
			return nil, err
		}
		c.log.Warn("failed to list children",
			"level", level.String(),
			"parent", parentName(parent),
			"error", err)
		c.metrics.ObserveFetch(level.String(), metrics.ResultError)
		return []resource.Node{resource.InsufficientPermission()}, nil
	}

	nodes := v.([]resource.Node)
	if len(nodes) == 0 {
		c.metrics.ObserveFetch(level.String(), metrics.ResultEmpty)
	} else {
		c.metrics.ObserveFetch(level.String(), metrics.ResultOK)
	}
	return withPlaceholder(nodes), nil
}

// Related returns the cached children of parentID at the given level without
// fetching. The subscription list is keyed by the empty parent id.
func (c *Cache) Related(parentID string, level resource.Kind) ([]resource.Node, bool) {
	nodes, ok := c.lookup(parentID, level)
	if !ok {
		return nil, false
	}
	return append([]resource.Node(nil), nodes...), true
}

// Invalidate drops the cached subtree below node and notifies subscribers.
// A container invalidates its parent database, since item counts are only
// refreshed by listing the database's containers again.
func (c *Cache) Invalidate(node resource.Node) {
	if node.Kind.IsSentinel() || node.Validate() != nil {
		return
	}

	target := node
	notify := false
	c.mu.Lock()
	if node.Kind == resource.KindContainer {
		// The parent database is only known if its account's list is cached.
		dbID := node.Container.DatabaseID
		for _, db := range c.entries[node.Container.AccountID].nodes {
			if db.ID() == dbID {
				target = db
				notify = true
				break
			}
		}
		c.drop(dbID)
	} else {
		c.drop(node.ID())
		notify = true
	}
	c.mu.Unlock()

	c.log.Debug("invalidated cache subtree", "node", target.String())
	if notify {
		c.notify(Event{Node: &target})
	}
}

// InvalidateAll drops every cached list and notifies subscribers that the
// whole tree changed.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.epochs = make(map[string]uint64)
	c.generation++
	c.mu.Unlock()

	c.log.Debug("invalidated whole cache")
	c.notify(Event{})
}

func (c *Cache) lookup(key string, level resource.Kind) ([]resource.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.level != level {
		return nil, false
	}
	return e.nodes, true
}

// put stores nodes unless key or the whole cache was invalidated since gen
// and epoch were read.
func (c *Cache) put(key string, level resource.Kind, nodes []resource.Node, gen, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.epochs[key] != epoch {
		return
	}
	c.entries[key] = entry{level: level, nodes: nodes}
}

// drop removes the list keyed by id and every cached list below it, and
// marks fetches of those lists that are still running as stale.
// Callers hold c.mu.
func (c *Cache) drop(id string) {
	c.epochs[id]++
	e, ok := c.entries[id]
	if !ok {
		return
	}
	delete(c.entries, id)
	for _, child := range e.nodes {
		c.drop(child.ID())
	}
}

func (c *Cache) fetch(ctx context.Context, parent *resource.Node) ([]resource.Node, error) {
	if parent == nil {
		groups, err := c.port.ListAccountGroups(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]resource.Node, 0, len(groups))
		for _, g := range groups {
			out = append(out, resource.GroupNode(g))
		}
		return out, nil
	}

	switch parent.Kind {
	case resource.KindAccountGroup:
		accounts, err := c.port.ListDataAccounts(ctx, *parent.Group)
		if err != nil {
			return nil, err
		}
		out := make([]resource.Node, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, resource.AccountNode(a))
		}
		return out, nil
	case resource.KindDataAccount:
		dbs, err := c.port.ListDatabases(ctx, *parent.Account)
		if err != nil {
			return nil, err
		}
		out := make([]resource.Node, 0, len(dbs))
		for _, d := range dbs {
			out = append(out, resource.DatabaseNode(d))
		}
		return out, nil
	case resource.KindDatabase:
		containers, err := c.port.ListContainers(ctx, *parent.Database)
		if err != nil {
			return nil, err
		}
		out := make([]resource.Node, 0, len(containers))
		for _, ct := range containers {
			out = append(out, resource.ContainerNode(ct))
		}
		return out, nil
	case resource.KindContainer, resource.KindNoResourcesFound, resource.KindInsufficientPermission:
		return nil, fmt.Errorf("%s has no children to fetch", parent.Kind)
	default:
		return nil, fmt.Errorf("unknown node kind %d", int(parent.Kind))
	}
}

// keyFor returns the cache key and child level for parent. A zero level
// means parent has no children.
func keyFor(parent *resource.Node) (string, resource.Kind, error) {
	if parent == nil {
		return rootKey, resource.KindAccountGroup, nil
	}
	if err := parent.Validate(); err != nil {
		return "", 0, err
	}
	switch parent.Kind {
	case resource.KindNoResourcesFound, resource.KindInsufficientPermission:
		return "", 0, ErrSentinelNode
	case resource.KindContainer:
		return "", 0, nil
	case resource.KindAccountGroup, resource.KindDataAccount, resource.KindDatabase:
		return parent.ID(), parent.Kind.Child(), nil
	default:
		return "", 0, fmt.Errorf("unknown node kind %d", int(parent.Kind))
	}
}

func withPlaceholder(nodes []resource.Node) []resource.Node {
	if len(nodes) == 0 {
		return []resource.Node{resource.NoResourcesFound()}
	}
	return append([]resource.Node(nil), nodes...)
}

func parentName(parent *resource.Node) string {
	if parent == nil {
		return "root"
	}
	return parent.String()
}
