package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
)

// Tree is a Source that also reports changes.
type Tree interface {
	Source
	Subscribe(fn func(cache.Event)) func()
}

// Browser runs the interactive tree. Expansion and cursor position survive
// between runs, so a clear started from the browser returns to the same spot.
type Browser struct {
	tree     Tree
	opts     []tea.ProgramOption
	expanded map[string]bool
	cursorID string
}

// NewBrowser creates a browser over tree. Program options are appended to the
// defaults (alternate screen).
func NewBrowser(tree Tree, opts ...tea.ProgramOption) *Browser {
	return &Browser{tree: tree, opts: opts}
}

// Run shows the browser until the user quits, returning nil, or picks a node
// to clear, returning that node.
func (b *Browser) Run(ctx context.Context) (*resource.Node, error) {
	m := NewModel(ctx, b.tree, b.expanded, b.cursorID)

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, b.opts...)
	p := tea.NewProgram(m, opts...)

	// Events are raised on the goroutine that changed the cache, which may be
	// a command of this program; Send must not block it.
	unsubscribe := b.tree.Subscribe(func(ev cache.Event) {
		go p.Send(InvalidatedMsg{Event: ev})
	})
	defer unsubscribe()

	finalModel, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	b.expanded = fm.Expanded()
	b.cursorID = fm.cursorID
	if fm.Selected == nil {
		b.cursorID = fm.CursorID()
	}
	return fm.Selected, nil
}
