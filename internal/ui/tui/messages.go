// Package tui provides a Bubble Tea browser for the Cosmos DB resource tree.
package tui

import (
	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
)

// ChildrenMsg delivers the children of the node with ParentID. Gen is the
// model generation the fetch was started in; stale results are dropped.
type ChildrenMsg struct {
	ParentID string
	Nodes    []resource.Node
	Err      error
	Gen      int
}

// InvalidatedMsg forwards a cache change event into the program.
type InvalidatedMsg struct {
	Event cache.Event
}

// TickMsg advances the loading spinner.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }
