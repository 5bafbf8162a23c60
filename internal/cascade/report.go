package cascade

import (
	"errors"
	"fmt"
	"sync"
)

// Errors recorded in a Failure when the remote error is not available.
var (
	ErrChildrenUnavailable = errors.New("children could not be listed")
	ErrMissingItemID       = errors.New("document has no id")
)

// Failure records one document, or one listing, that could not be cleared.
// Item is empty when the container's documents could not be listed. Parent is
// set instead of Container when the children of a subscription, account or
// database could not be listed.
type Failure struct {
	Parent    string
	Container string
	Item      string
	Err       error
}

func (f Failure) Error() string {
	if f.Parent != "" {
		return fmt.Sprintf("listing below %s: %v", f.Parent, f.Err)
	}
	if f.Item == "" {
		return fmt.Sprintf("container %s: %v", f.Container, f.Err)
	}
	return fmt.Sprintf("container %s item %s: %v", f.Container, f.Item, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a clear. It is safe for concurrent use while the clear
// runs and must not be modified afterwards.
type Report struct {
	mu sync.Mutex

	ContainersVisited int
	ItemsFound        int
	ItemsDeleted      int
	Failures          []Failure
}

// Err joins all failures, or returns nil when every document was deleted.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *Report) visited(items int) {
	r.mu.Lock()
	r.ContainersVisited++
	r.ItemsFound += items
	r.mu.Unlock()
}

func (r *Report) deleted() {
	r.mu.Lock()
	r.ItemsDeleted++
	r.mu.Unlock()
}

func (r *Report) fail(f Failure) {
	r.mu.Lock()
	r.Failures = append(r.Failures, f)
	r.mu.Unlock()
}
