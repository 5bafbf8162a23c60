package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/ui/tui"
)

// scriptedBrowser selects the nodes at paths in turn, then quits.
type scriptedBrowser struct {
	tree  tui.Tree
	paths []string
	runs  int
}

func (b *scriptedBrowser) Run(ctx context.Context) (*resource.Node, error) {
	b.runs++
	if len(b.paths) == 0 {
		return nil, nil
	}
	path := b.paths[0]
	b.paths = b.paths[1:]
	node, err := resolvePath(ctx, b.tree.(*cache.Cache), path)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	setupHandlers(t, "")

	err := Browse(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestBrowse_ClearThenQuit(t *testing.T) {
	e := setupHandlers(t, "main\nNo\n")
	isTerminal = func() bool { return true }
	browser := &scriptedBrowser{paths: []string{"Prod/shop/main"}}
	newBrowser = func(tree tui.Tree) Browser {
		browser.tree = tree
		return browser
	}

	require.NoError(t, Browse(context.Background(), ""))

	assert.Equal(t, 1, browser.runs)
	assert.Zero(t, e.port.ItemCount(e.orders))
	assert.Contains(t, e.out.String(), "Cleared database main")
}

func TestBrowse_ReturnsToBrowser(t *testing.T) {
	e := setupHandlers(t, "No\nyes\n")
	isTerminal = func() bool { return true }
	browser := &scriptedBrowser{paths: []string{"Prod/shop/audit/logs"}}
	newBrowser = func(tree tui.Tree) Browser {
		browser.tree = tree
		return browser
	}

	require.NoError(t, Browse(context.Background(), ""))

	assert.Equal(t, 2, browser.runs)
	assert.Equal(t, 1, e.port.ItemCount(e.logs), "declined clear keeps documents")
	assert.Contains(t, e.out.String(), "Clear of container logs cancelled.")
}
