package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/cosmoclear/internal/cascade"
	"github.com/imamik/cosmoclear/internal/resource"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	reportColorGreen = lipgloss.Color("#22c55e")
	reportColorRed   = lipgloss.Color("#ef4444")
	reportColorDim   = lipgloss.Color("#6b7280")
	reportColorWhite = lipgloss.Color("#f9fafb")
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(reportColorWhite)

	reportDimStyle = lipgloss.NewStyle().
			Foreground(reportColorDim)

	reportGreenStyle = lipgloss.NewStyle().
				Foreground(reportColorGreen)

	reportRedStyle = lipgloss.NewStyle().
			Foreground(reportColorRed)
)

// renderReport produces a lipgloss-styled clear summary.
func renderReport(node resource.Node, report *cascade.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(reportTitleStyle.Render(fmt.Sprintf("  Cleared %s %s", node.Kind, node.DisplayName())))
	b.WriteString("\n")
	b.WriteString(reportDimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "  %-20s %d\n", "Containers", report.ContainersVisited)
	fmt.Fprintf(&b, "  %-20s %d\n", "Documents found", report.ItemsFound)
	fmt.Fprintf(&b, "  %-20s %s\n", "Documents deleted", reportGreenStyle.Render(fmt.Sprint(report.ItemsDeleted)))

	if len(report.Failures) == 0 {
		b.WriteString(reportGreenStyle.Render("  No failures"))
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %-20s %s\n", "Failures", reportRedStyle.Render(fmt.Sprint(len(report.Failures))))
	for _, f := range report.Failures {
		b.WriteString("    ")
		b.WriteString(reportRedStyle.Render(f.Error()))
		b.WriteString("\n")
	}
	return b.String()
}
