// package formatter renders search results, queue snapshots, and
// orchestration outcomes for terminal output
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jukebot/jukebot/internal/models"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	dim   lipgloss.Style
}

func NewPalette(t, s, e, d string) *Palette {
	return &Palette{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(t)).Bold(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color(s)).Bold(true),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color(e)).Bold(true),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color(d)).Italic(true),
	}
}

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#626262")

// Results renders ranked catalog candidates, winner first.
func Results(items []models.CatalogItem) string {
	if len(items) == 0 {
		return styles.dim.Render("No results.")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%d results", len(items))))
	b.WriteString("\n")
	for i, item := range items {
		line := fmt.Sprintf("%2d. %s", i+1, item.Name)
		if item.Artist != "" {
			line += " — " + item.Artist
		}
		if item.Popularity > 0 {
			line += styles.dim.Render(fmt.Sprintf(" (%d)", item.Popularity))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Queue renders a device queue snapshot in position order.
func Queue(items []models.QueueItem) string {
	if len(items) == 0 {
		return styles.dim.Render("The queue is empty.")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%d queued", len(items))))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("%3d. %s — %s\n", item.Position, item.Title, item.Artist))
	}
	return b.String()
}

// Outcome renders an orchestration acknowledgment.
func Outcome(out models.OrchestrationOutcome) string {
	if out.Accepted {
		return styles.ok.Render("✓ ") + out.Message
	}
	return styles.err.Render("✗ ") + out.Message
}
