package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/cosmoclear/internal/confirm"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/ui/tui"
)

// Browser is the interactive tree, replaceable in tests.
type Browser interface {
	Run(ctx context.Context) (*resource.Node, error)
}

var newBrowser = func(tree tui.Tree) Browser {
	return tui.NewBrowser(tree)
}

// Browse runs the interactive browser. Choosing a node to clear leaves the
// browser for the confirmation and the report, then returns to it.
func Browse(ctx context.Context, configPath string) error {
	if !isTerminal() {
		return errors.New("browse needs an interactive terminal, use the tree and clear commands instead")
	}

	a, err := newApp(ctx, configPath, "browse")
	if err != nil {
		return err
	}
	defer a.close()

	browser := newBrowser(a.cache)
	p := prompter("", false)
	gate := confirm.NewGate(p, a.log)

	for {
		node, err := browser.Run(ctx)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}

		ran, err := gate.Run(ctx, *node, a.clearAction(*node))
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			fmt.Fprintf(stdout, "Error: %v\n", err)
		case !ran:
			fmt.Fprintf(stdout, "Clear of %s %s cancelled.\n", node.Kind, node.DisplayName())
		}

		choice, ok, err := p.PromptChoice(ctx, "Return to the browser?", []string{confirm.Yes, confirm.No})
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		if !ok || choice != confirm.Yes {
			return nil
		}
	}
}
