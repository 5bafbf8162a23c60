package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/cosmoclear/internal/cascade"
	"github.com/imamik/cosmoclear/internal/confirm"
	"github.com/imamik/cosmoclear/internal/resource"
)

// ClearOptions holds the flags of the clear command.
type ClearOptions struct {
	// Confirm answers the confirmation prompt non-interactively when
	// HasConfirm is set.
	Confirm    string
	HasConfirm bool
}

// Clear resolves path, asks for confirmation and deletes every document
// below the node. It fails when the walk failed or any document could not
// be deleted.
func Clear(ctx context.Context, configPath, path string, opts ClearOptions) error {
	a, err := newApp(ctx, configPath, "clear")
	if err != nil {
		return err
	}
	defer a.close()

	node, err := resolvePath(ctx, a.cache, path)
	if err != nil {
		return err
	}

	gate := confirm.NewGate(prompter(opts.Confirm, opts.HasConfirm), a.log)
	ran, err := gate.Run(ctx, node, a.clearAction(node))
	if err != nil {
		return err
	}
	if !ran {
		fmt.Fprintf(stdout, "Clear of %s %s cancelled.\n", node.Kind, node.DisplayName())
	}
	return nil
}

// clearAction runs the engine on node, refreshes the cached subtree and
// prints the report.
func (a *app) clearAction(node resource.Node) confirm.Action {
	return func(ctx context.Context) error {
		report, err := a.engine.Clear(ctx, node)
		a.cache.Invalidate(node)
		fmt.Fprint(stdout, renderReport(node, report))
		if err != nil {
			return fmt.Errorf("clear of %s failed: %w", node, err)
		}
		return failuresErr(report)
	}
}

func failuresErr(report *cascade.Report) error {
	if err := report.Err(); err != nil {
		return fmt.Errorf("clear incomplete, %d failure(s): %w", len(report.Failures), err)
	}
	return nil
}
