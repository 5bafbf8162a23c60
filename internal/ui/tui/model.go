package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/resource"
)

// rootID keys the subscription list.
const rootID = ""

// Source is the part of the cache the browser reads from.
type Source interface {
	ChildrenOf(ctx context.Context, parent *resource.Node) ([]resource.Node, error)
	Invalidate(node resource.Node)
	InvalidateAll()
}

// Row is one visible line of the tree.
type Row struct {
	Node     resource.Node
	Depth    int
	Expanded bool
	// Loading marks the synthetic row shown while children are fetched.
	Loading bool
}

// Model is the Bubble Tea model of the resource browser.
type Model struct {
	ctx    context.Context
	source Source

	// Loaded child lists by parent id, and which nodes are expanded.
	children map[string][]resource.Node
	expanded map[string]bool
	loading  map[string]bool
	gen      int

	cursor   int
	offset   int
	cursorID string

	// Selected is set when the user asked to clear a node.
	Selected *resource.Node

	SpinnerFrame int
	Width        int
	Height       int
	Err          error
}

// NewModel creates a browser over src. Expanded restores the nodes expanded
// in a previous run and cursorID the selected row; both may be empty.
func NewModel(ctx context.Context, src Source, expanded map[string]bool, cursorID string) Model {
	if expanded == nil {
		expanded = make(map[string]bool)
	}
	expanded[rootID] = true
	return Model{
		ctx:      ctx,
		source:   src,
		children: make(map[string][]resource.Node),
		expanded: expanded,
		loading:  map[string]bool{rootID: true},
		cursorID: cursorID,
	}
}

// Expanded returns the ids of the expanded nodes.
func (m Model) Expanded() map[string]bool { return m.expanded }

// CursorID returns the id of the row under the cursor.
func (m Model) CursorID() string {
	rows := m.Rows()
	if m.cursor < len(rows) {
		return rows[m.cursor].Node.ID()
	}
	return ""
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(nil), tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.scroll()

	case ChildrenMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		delete(m.loading, msg.ParentID)
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.children[msg.ParentID] = msg.Nodes
		m.restoreCursor()
		m.scroll()
		cmd := m.reloadExpanded(msg.Nodes)
		return m, cmd

	case InvalidatedMsg:
		cmd := m.applyInvalidation(msg.Event)
		return m, cmd

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.Rows()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "right", "l", "enter":
		if row, ok := m.current(rows); ok && canExpand(row.Node) && !row.Expanded {
			cmd := m.expand(row.Node)
			return m, cmd
		}
	case "left", "h":
		if row, ok := m.current(rows); ok {
			if row.Expanded {
				delete(m.expanded, row.Node.ID())
			} else {
				m.cursor = parentRow(rows, m.cursor)
			}
		}
	case "r":
		if row, ok := m.current(rows); ok && !row.Loading && !row.Node.Kind.IsSentinel() {
			node := row.Node
			return m, func() tea.Msg {
				m.source.Invalidate(node)
				return nil
			}
		}
	case "R":
		return m, func() tea.Msg {
			m.source.InvalidateAll()
			return nil
		}
	case "c":
		if row, ok := m.current(rows); ok && !row.Loading && !row.Node.Kind.IsSentinel() {
			node := row.Node
			m.Selected = &node
			m.cursorID = node.ID()
			return m, tea.Quit
		}
	}
	m.scroll()
	return m, nil
}

func (m Model) current(rows []Row) (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return Row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) expand(node resource.Node) tea.Cmd {
	id := node.ID()
	m.expanded[id] = true
	if _, ok := m.children[id]; ok || m.loading[id] {
		return nil
	}
	m.loading[id] = true
	return m.fetch(&node)
}

// reloadExpanded fetches the children of every node in nodes that is
// expanded but not loaded, so expansion survives a refresh.
func (m *Model) reloadExpanded(nodes []resource.Node) tea.Cmd {
	var cmds []tea.Cmd
	for _, n := range nodes {
		id := n.ID()
		if !m.expanded[id] || !canExpand(n) {
			continue
		}
		if _, ok := m.children[id]; ok || m.loading[id] {
			continue
		}
		m.loading[id] = true
		cmds = append(cmds, m.fetch(&n))
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyInvalidation(ev cache.Event) tea.Cmd {
	m.gen++
	m.cursorID = m.CursorID()
	if ev.WholeTree() {
		m.children = make(map[string][]resource.Node)
		m.loading = map[string]bool{rootID: true}
		return m.fetch(nil)
	}

	node := *ev.Node
	m.dropBelow(node.ID())
	// Fetches in flight were discarded with the generation bump.
	m.loading = make(map[string]bool)
	var cmds []tea.Cmd
	if _, ok := m.children[rootID]; !ok {
		m.loading[rootID] = true
		cmds = append(cmds, m.fetch(nil))
	}
	for id, nodes := range m.children {
		cmds = append(cmds, m.reloadMissing(id, nodes)...)
	}
	return tea.Batch(cmds...)
}

func (m *Model) reloadMissing(parentID string, nodes []resource.Node) []tea.Cmd {
	if !m.expanded[parentID] {
		return nil
	}
	var cmds []tea.Cmd
	for _, n := range nodes {
		id := n.ID()
		if !m.expanded[id] || !canExpand(n) || m.loading[id] {
			continue
		}
		if _, ok := m.children[id]; ok {
			continue
		}
		m.loading[id] = true
		cmds = append(cmds, m.fetch(&n))
	}
	return cmds
}

func (m *Model) dropBelow(id string) {
	nodes, ok := m.children[id]
	if !ok {
		return
	}
	delete(m.children, id)
	for _, n := range nodes {
		if !n.Kind.IsSentinel() {
			m.dropBelow(n.ID())
		}
	}
}

func (m Model) fetch(parent *resource.Node) tea.Cmd {
	ctx, src, gen := m.ctx, m.source, m.gen
	parentID := rootID
	if parent != nil {
		node := *parent
		parent = &node
		parentID = node.ID()
	}
	return func() tea.Msg {
		nodes, err := src.ChildrenOf(ctx, parent)
		return ChildrenMsg{ParentID: parentID, Nodes: nodes, Err: err, Gen: gen}
	}
}

// restoreCursor moves the cursor back onto cursorID once its row is visible.
func (m *Model) restoreCursor() {
	if m.cursorID == "" {
		return
	}
	for i, row := range m.Rows() {
		if !row.Loading && row.Node.ID() == m.cursorID {
			m.cursor = i
			m.cursorID = ""
			m.scroll()
			return
		}
	}
}

// Rows flattens the expanded part of the tree into visible lines.
func (m Model) Rows() []Row {
	var rows []Row
	m.appendRows(&rows, rootID, 0)
	return rows
}

func (m Model) appendRows(rows *[]Row, parentID string, depth int) {
	nodes, ok := m.children[parentID]
	if !ok {
		if m.loading[parentID] {
			*rows = append(*rows, Row{Depth: depth, Loading: true})
		}
		return
	}
	for _, n := range nodes {
		id := n.ID()
		expanded := canExpand(n) && m.expanded[id]
		*rows = append(*rows, Row{Node: n, Depth: depth, Expanded: expanded})
		if expanded {
			m.appendRows(rows, id, depth+1)
		}
	}
}

// scroll keeps the cursor inside the visible window.
func (m *Model) scroll() {
	if n := len(m.Rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	height := m.treeHeight()
	if height <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
}

func (m Model) treeHeight() int {
	if m.Height == 0 {
		return 0
	}
	// Header, status and footer lines.
	return max(m.Height-5, 1)
}

func canExpand(n resource.Node) bool {
	return n.Kind.Child() != 0
}

// parentRow returns the index of the nearest row above i with a smaller depth.
func parentRow(rows []Row, i int) int {
	for j := i - 1; j >= 0; j-- {
		if rows[j].Depth < rows[i].Depth {
			return j
		}
	}
	return i
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
