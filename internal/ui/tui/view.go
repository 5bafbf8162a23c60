package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/cosmoclear/internal/resource"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderTree(&b, m)
	renderFooter(&b)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render("cosmoclear"))
	b.WriteString(subtitleStyle.Render("  Azure Cosmos DB"))
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(failedStyle.Render(fmt.Sprintf("  Error: %v", m.Err)))
	case len(m.loading) > 0:
		b.WriteString(warningStyle.Render("  " + currentSpinner(m.SpinnerFrame) + " loading"))
	default:
		b.WriteString(dimStyle.Render("  ready"))
	}
	b.WriteString("\n\n")
}

func renderTree(b *strings.Builder, m Model) {
	rows := m.Rows()
	start, end := 0, len(rows)
	if h := m.treeHeight(); h > 0 {
		start = min(m.offset, len(rows))
		end = min(start+h, len(rows))
	}

	for i := start; i < end; i++ {
		row := rows[i]
		if row.Loading {
			fmt.Fprintf(b, "%s%s\n", indent(row.Depth), dimStyle.Render(currentSpinner(m.SpinnerFrame)+" loading…"))
			continue
		}
		line := RenderRow(row)
		if i == m.cursor {
			line = selectedStyle.Render(plainRow(row))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder) {
	keys := []string{"↑/↓ move", "→ expand", "← collapse", "r refresh", "R reload all", "c clear", "q quit"}
	b.WriteString(footerStyle.Render("  " + strings.Join(keys, "  |  ")))
	b.WriteString("\n")
}

// RenderRow renders a tree row with colors.
func RenderRow(row Row) string {
	p := resource.Present(row.Node)
	style := rowStyle(row.Node)

	line := indent(row.Depth) + marker(row) + " " + style(p.Icon+" "+p.Label)
	if p.Description != "" {
		line += " " + dimStyle.Render(p.Description)
	}
	return line
}

func plainRow(row Row) string {
	p := resource.Present(row.Node)
	line := indent(row.Depth) + marker(row) + " " + p.Icon + " " + p.Label
	if p.Description != "" {
		line += " " + p.Description
	}
	return line
}

func rowStyle(n resource.Node) styleFunc {
	switch n.Kind {
	case resource.KindAccountGroup:
		return sf(groupStyle)
	case resource.KindInsufficientPermission:
		return sf(failedStyle)
	case resource.KindNoResourcesFound:
		return sf(warningStyle)
	case resource.KindContainer:
		if n.Container.IsEmpty {
			return sf(dimStyle)
		}
		return sf(readyStyle)
	default:
		return func(s string) string { return s }
	}
}

func marker(row Row) string {
	switch {
	case !canExpand(row.Node):
		return leafMark
	case row.Expanded:
		return expandedMark
	default:
		return collapsedMark
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth+1)
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}
