package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/ui/tui"
)

// treeNode is the JSON form of one node of the tree output.
type treeNode struct {
	Kind     string     `json:"kind"`
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"`
	Empty    bool       `json:"empty,omitempty"`
	Children []treeNode `json:"children,omitempty"`

	node resource.Node
}

// Tree prints the resource hierarchy down to depth levels (1 lists only the
// subscriptions). Lists are fetched lazily, one level at a time.
func Tree(ctx context.Context, configPath string, depth int, asJSON bool) error {
	if depth < 1 || depth > maxPathDepth {
		return fmt.Errorf("depth must be between 1 and %d, got %d", maxPathDepth, depth)
	}

	a, err := newApp(ctx, configPath, "tree")
	if err != nil {
		return err
	}
	defer a.close()

	nodes, err := expandTree(ctx, a.cache, nil, depth)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}
	_, err = fmt.Fprint(stdout, renderTree(nodes, 0))
	return err
}

func expandTree(ctx context.Context, c *cache.Cache, parent *resource.Node, depth int) ([]treeNode, error) {
	children, err := c.ChildrenOf(ctx, parent)
	if err != nil {
		return nil, err
	}

	out := make([]treeNode, 0, len(children))
	for _, n := range children {
		tn := treeNode{Kind: n.Kind.String(), ID: n.ID(), Name: n.DisplayName(), node: n}
		if n.Kind == resource.KindContainer {
			tn.Empty = n.Container.IsEmpty
		}
		if depth > 1 && n.Kind.Child() != 0 {
			tn.Children, err = expandTree(ctx, c, &n, depth-1)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, tn)
	}
	return out, nil
}

func renderTree(nodes []treeNode, depth int) string {
	var b strings.Builder
	for _, tn := range nodes {
		b.WriteString(tui.RenderRow(tui.Row{
			Node:     tn.node,
			Depth:    depth,
			Expanded: len(tn.Children) > 0,
		}))
		b.WriteString("\n")
		b.WriteString(renderTree(tn.Children, depth+1))
	}
	return b.String()
}
