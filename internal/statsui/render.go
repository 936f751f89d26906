package statsui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/stats"
)

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	term := m.cfg.Term
	if term == "" {
		term = "any"
	}
	activity := "any"
	if m.cfg.Activity > 0 {
		activity = fmt.Sprintf("%d", m.cfg.Activity)
	}
	top := "all"
	if m.cfg.TopN > 0 {
		top = fmt.Sprintf("%d", m.cfg.TopN)
	}
	run := m.cfg.RunID
	if run == "" {
		run = "latest"
	}
	summary := fmt.Sprintf("Run: %s  term=%s  activity=%s  top=%s", run, term, activity, top)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabErrors:
		if len(m.report.Errors) == 0 {
			return fitLines("No errors found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.errorTable.View()), m.width, height)
	case tabActivities:
		if len(m.report.Activities) == 0 {
			return fitLines("No activities found.", m.width, height)
		}
		rates := make([]float64, len(m.report.Activities))
		for i, agg := range m.report.Activities {
			rates[i] = stats.AcceptRate(agg)
		}
		view := tableMutedStyle.Render(m.activityTable.View()) + "\n\n" +
			headerStyle.Render("Accept rate: ") + stats.Sparkline(rates)
		return fitLines(view, m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func renderOverview(r stats.Report, width int) string {
	s := r.Summary
	if s.Attempts == 0 {
		return "No attempts found."
	}
	cards := []string{
		metricCard("Attempts", fmt.Sprintf("%d", s.Attempts)),
		metricCard("Accept Rate", fmt.Sprintf("%.1f%%", s.AcceptRate*100)),
		metricCard("Avg Subs", fmt.Sprintf("%.2f", s.MeanSubmissions)),
		metricCard("Avg Focus", stats.FormatSeconds(s.MeanFocused)),
		metricCard("Avg Total", stats.FormatSeconds(s.MeanTotal)),
		metricCard("With Issues", fmt.Sprintf("%d", s.WithIssues)),
	}
	var out string
	if width < 80 {
		out = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		out = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	if len(r.Hardest) > 0 {
		lines := []string{"", headerStyle.Render("Hardest activities")}
		for _, agg := range r.Hardest {
			lines = append(lines, fmt.Sprintf("  %s/%d/%d  %.1f%% of %d accepted",
				agg.Term, agg.Class, agg.Activity, stats.AcceptRate(agg)*100, agg.Attempts))
		}
		out += "\n" + strings.Join(lines, "\n")
	}
	if len(r.Issues) > 0 {
		kinds := make([]string, 0, len(r.Issues))
		for kind := range r.Issues {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		lines := []string{"", headerStyle.Render("Issues")}
		for _, kind := range kinds {
			lines = append(lines, fmt.Sprintf("  %-18s %d", kind, r.Issues[kind]))
		}
		out += "\n" + strings.Join(lines, "\n")
	}
	return out
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func errorColumns() []table.Column {
	return []table.Column{
		{Title: "Error", Width: 32},
		{Title: "Occurrences", Width: 11},
		{Title: "Attempts", Width: 8},
	}
}

func errorRows(aggs []model.ErrorAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, table.Row{
			agg.ErrorTypeName,
			fmt.Sprintf("%d", agg.Occurrences),
			fmt.Sprintf("%d", agg.Attempts),
		})
	}
	return rows
}

func activityColumns() []table.Column {
	return []table.Column{
		{Title: "Term", Width: 8},
		{Title: "Class", Width: 6},
		{Title: "Activity", Width: 8},
		{Title: "Attempts", Width: 8},
		{Title: "Accepted", Width: 8},
		{Title: "Rate", Width: 8},
		{Title: "Avg Subs", Width: 8},
		{Title: "Avg Focus", Width: 9},
	}
}

func activityRows(aggs []model.ActivityAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, table.Row{
			agg.Term,
			fmt.Sprintf("%d", agg.Class),
			fmt.Sprintf("%d", agg.Activity),
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d", agg.Accepted),
			fmt.Sprintf("%.1f%%", stats.AcceptRate(agg)*100),
			fmt.Sprintf("%.2f", agg.AvgSubmissions),
			stats.FormatSeconds(agg.AvgFocused),
		})
	}
	return rows
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
