package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks in parallel with at most limit running at once
// (limit <= 0 means unbounded). A failing task does not cancel the others;
// RunParallel waits for all of them and returns their errors joined, each
// prefixed with the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "orders", Func: clearOrders},
//	    {Name: "events", Func: clearEvents},
//	}
//	if err := RunParallel(ctx, tasks, 8); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", task.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
