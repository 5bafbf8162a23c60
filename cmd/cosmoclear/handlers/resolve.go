package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
)

// maxPathDepth is the number of levels down to containers.
const maxPathDepth = 4

// errNodeNotFound is returned when a path segment matches no child.
var errNodeNotFound = errors.New("resource not found")

// resolvePath walks the tree from the subscriptions down, matching each
// "/"-separated segment against display names, then ids.
func resolvePath(ctx context.Context, c *cache.Cache, path string) (resource.Node, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return resource.Node{}, errors.New("path is empty, expected <subscription>[/<account>[/<database>[/<container>]]]")
	}
	if len(segments) > maxPathDepth {
		return resource.Node{}, fmt.Errorf("path %q has %d segments, at most %d are allowed", path, len(segments), maxPathDepth)
	}

	var parent *resource.Node
	var current resource.Node
	for _, segment := range segments {
		children, err := c.ChildrenOf(ctx, parent)
		if err != nil {
			return resource.Node{}, err
		}
		node, err := match(children, segment, parent)
		if err != nil {
			return resource.Node{}, err
		}
		current = node
		parent = &current
	}
	return current, nil
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func match(children []resource.Node, segment string, parent *resource.Node) (resource.Node, error) {
	where := "the configured tenants"
	if parent != nil {
		where = parent.String()
	}

	if len(children) == 1 && children[0].Kind == resource.KindInsufficientPermission {
		return resource.Node{}, fmt.Errorf("cannot list the children of %s: insufficient permission", where)
	}

	for _, n := range children {
		if !n.Kind.IsSentinel() && n.DisplayName() == segment {
			return n, nil
		}
	}
	for _, n := range children {
		if !n.Kind.IsSentinel() && n.ID() == segment {
			return n, nil
		}
	}

	var names []string
	for _, n := range children {
		if !n.Kind.IsSentinel() {
			names = append(names, n.DisplayName())
		}
	}
	if len(names) == 0 {
		return resource.Node{}, fmt.Errorf("%w: %q (%s has no children)", errNodeNotFound, segment, where)
	}
	return resource.Node{}, fmt.Errorf("%w: %q under %s (available: %s)", errNodeNotFound, segment, where, strings.Join(names, ", "))
}
