package main

import (
	"fmt"
	"strings"
	"time"

	"fluentgen/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// maxListed caps each section so a broken source tree does not flood the
// terminal.
const maxListed = 20

func renderSummary(res ports.RunResult) string {
	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render("fluentgen run "+shortID(res.RunID)))
	fmt.Fprintf(&b, "%d handles, %d declarations (%d placeholders), %d selected, %d families derived in %s\n",
		res.Handles, res.Declarations, res.Placeholders, res.Selected, res.Derived, res.Duration.Round(time.Millisecond))
	if res.Conflicts > 0 {
		fmt.Fprintln(&b, failureStyle.Render(fmt.Sprintf("%d conflicting registrations", res.Conflicts)))
	}

	if len(res.Cycles) > 0 {
		fmt.Fprintln(&b, cycleStyle.Render(fmt.Sprintf("%d inheritance cycles", len(res.Cycles))))
		for i, cycle := range res.Cycles {
			if i == maxListed {
				fmt.Fprintf(&b, "  ... %d more\n", len(res.Cycles)-maxListed)
				break
			}
			fmt.Fprintf(&b, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
	}

	if len(res.Failures) > 0 {
		fmt.Fprintln(&b, failureStyle.Render(fmt.Sprintf("%d failures", len(res.Failures))))
		for i, f := range res.Failures {
			if i == maxListed {
				fmt.Fprintf(&b, "  ... %d more\n", len(res.Failures)-maxListed)
				break
			}
			fmt.Fprintf(&b, "  [%s] %s: %s (%s)\n", f.Stage, f.Type, f.Message, f.Code)
		}
	} else {
		fmt.Fprintln(&b, successStyle.Render("no failures"))
	}

	if res.Diff != nil {
		if res.Diff.Empty() {
			fmt.Fprintln(&b, statusStyle.Render("unchanged since previous run"))
		} else {
			fmt.Fprintf(&b, "since previous run: +%d -%d ~%d\n",
				len(res.Diff.Added), len(res.Diff.Removed), len(res.Diff.Changed))
			writeNames(&b, "+", res.Diff.Added)
			writeNames(&b, "-", res.Diff.Removed)
			writeNames(&b, "~", res.Diff.Changed)
		}
	}

	for _, path := range res.Written {
		fmt.Fprintln(&b, statusStyle.Render("wrote "+path))
	}
	return docStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func writeNames(b *strings.Builder, mark string, names []string) {
	for i, n := range names {
		if i == maxListed {
			fmt.Fprintf(b, "  %s ... %d more\n", mark, len(names)-maxListed)
			return
		}
		fmt.Fprintf(b, "  %s %s\n", mark, n)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
