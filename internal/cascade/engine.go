// Package cascade clears every document below a node of the resource tree.
//
// Descendants are resolved through the cache, using lists already on hand
// before fetching. Sibling subtrees are cleared concurrently and the deletes
// inside a container run with a bounded fan-out. Every level waits for all of
// its tasks before it reports completion, so a returned Clear means no delete
// is still in flight.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/metrics"
	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/session"
	"github.com/imamik/cosmoclear/internal/util/async"
)

// DefaultConcurrency bounds the deletes running at once inside a container.
const DefaultConcurrency = 8

// Archiver stores a copy of a document before it is deleted.
type Archiver interface {
	Archive(ctx context.Context, container resource.Container, item resource.Item) error
}

// Engine runs cascading clears.
type Engine struct {
	cache       *cache.Cache
	port        remote.Port
	log         *slog.Logger
	metrics     *metrics.Recorder
	archiver    Archiver
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithArchiver archives every document before it is deleted. A document whose
// archive fails is left in place.
func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archiver = a }
}

// WithConcurrency bounds the deletes running at once inside one container.
// Values below one fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an engine that walks c and deletes through port.
func New(c *cache.Cache, port remote.Port, opts ...Option) *Engine {
	e := &Engine{
		cache:       c,
		port:        port,
		log:         slog.New(slog.DiscardHandler),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clear deletes every document in every container at or below node.
//
// Per-document failures are collected in the report and never stop other
// deletes. The returned error is reserved for conditions that make the walk
// itself impossible: a placeholder node, a missing session or credential, or
// a cancelled context. The report is non-nil even when an error is returned.
func (e *Engine) Clear(ctx context.Context, node resource.Node) (*Report, error) {
	report := &Report{}
	if node.Kind.IsSentinel() {
		return report, cache.ErrSentinelNode
	}
	if err := node.Validate(); err != nil {
		return report, err
	}

	e.log.Info("clearing", "node", node.String())
	err := e.walk(ctx, node, report)
	if err == nil {
		err = ctx.Err()
	}
	e.log.Info("clear finished",
		"node", node.String(),
		"containers", report.ContainersVisited,
		"found", report.ItemsFound,
		"deleted", report.ItemsDeleted,
		"failures", len(report.Failures))
	return report, err
}

func (e *Engine) walk(ctx context.Context, node resource.Node, report *Report) error {
	switch node.Kind {
	case resource.KindContainer:
		return e.clearContainer(ctx, *node.Container, report)
	case resource.KindAccountGroup, resource.KindDataAccount, resource.KindDatabase:
		children, err := e.children(ctx, node, report)
		if err != nil {
			return err
		}
		tasks := make([]async.Task, 0, len(children))
		for _, child := range children {
			tasks = append(tasks, async.Task{
				Name: child.String(),
				Func: func(ctx context.Context) error { return e.walk(ctx, child, report) },
			})
		}
		return async.RunParallel(ctx, tasks, 0)
	case resource.KindNoResourcesFound, resource.KindInsufficientPermission:
		return nil
	default:
		return fmt.Errorf("unknown node kind %d", int(node.Kind))
	}
}

// children prefers the cached list and fetches only when none is cached.
// Placeholders are dropped. A list that could not be fetched is recorded as a
// failure, since documents below it are left in place.
func (e *Engine) children(ctx context.Context, node resource.Node, report *Report) ([]resource.Node, error) {
	nodes, ok := e.cache.Related(node.ID(), node.Kind.Child())
	if !ok {
		var err error
		nodes, err = e.cache.ChildrenOf(ctx, &node)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", node, err)
		}
	}

	if len(nodes) == 1 && nodes[0].Kind == resource.KindInsufficientPermission {
		e.log.Warn("failed to list children", "node", node.String())
		report.fail(Failure{Parent: node.ID(), Err: ErrChildrenUnavailable})
		e.metrics.DeleteFailed()
		return nil, nil
	}

	out := make([]resource.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind.IsSentinel() {
			e.log.Debug("skipping placeholder", "parent", node.String(), "placeholder", n.String())
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (e *Engine) clearContainer(ctx context.Context, c resource.Container, report *Report) error {
	items, err := e.port.ListItems(ctx, c)
	if err != nil {
		if isHard(err) {
			return fmt.Errorf("failed to list items of %s: %w", c.DisplayName, err)
		}
		e.log.Warn("failed to list items", "container", c.ID, "error", err)
		report.fail(Failure{Container: c.ID, Err: err})
		e.metrics.DeleteFailed()
		return nil
	}
	report.visited(len(items))
	e.metrics.ContainerCleared()

	tasks := make([]async.Task, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			e.log.Warn("skipping document without id", "container", c.ID)
			report.fail(Failure{Container: c.ID, Err: ErrMissingItemID})
			e.metrics.DeleteFailed()
			continue
		}
		tasks = append(tasks, async.Task{
			Name: item.ID,
			Func: func(ctx context.Context) error {
				e.clearItem(ctx, c, item, report)
				return nil
			},
		})
	}
	return async.RunParallel(ctx, tasks, e.concurrency)
}

func (e *Engine) clearItem(ctx context.Context, c resource.Container, item resource.Item, report *Report) {
	if e.archiver != nil {
		if err := e.archiver.Archive(ctx, c, item); err != nil {
			e.log.Warn("failed to archive item, leaving it in place",
				"container", c.ID, "item", item.ID, "error", err)
			report.fail(Failure{Container: c.ID, Item: item.ID, Err: fmt.Errorf("archive: %w", err)})
			e.metrics.DeleteFailed()
			return
		}
	}

	err := e.port.DeleteItem(ctx, c, item)
	switch {
	case err == nil:
		report.deleted()
		e.metrics.ItemDeleted()
	case errors.Is(err, remote.ErrNotFound):
		e.log.Debug("item already gone", "container", c.ID, "item", item.ID)
	default:
		e.log.Warn("failed to delete item", "container", c.ID, "item", item.ID, "error", err)
		report.fail(Failure{Container: c.ID, Item: item.ID, Err: err})
		e.metrics.DeleteFailed()
	}
}

func isHard(err error) bool {
	return errors.Is(err, session.ErrNotSignedIn) ||
		errors.Is(err, session.ErrCredentialNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
