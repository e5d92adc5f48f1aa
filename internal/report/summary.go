package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// LabelStyle for field names.
	LabelStyle = lipgloss.NewStyle().Faint(true)

	// SuccessStyle for a selected lag.
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

	// WarningStyle for a missing lag.
	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// maxTableRows caps the lag table in the terminal summary.
const maxTableRows = 50

// RenderSummary renders the terminal summary of a run.
func RenderSummary(result types.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s → %s (%s)", result.Anchor, result.Target, result.Interval)))
	b.WriteString("\n")
	b.WriteString(field("Run", result.ID))
	b.WriteString(field("Aligned bars", strconv.Itoa(result.AlignedPoints)))
	b.WriteString(field("Max lag", strconv.Itoa(result.Params.MaxLag)))
	b.WriteString(field("Correlation threshold", fmt.Sprintf("%.2f", result.Params.CorrThreshold)))
	b.WriteString("\n")

	if result.SelectedLag.IsSome() {
		b.WriteString(SuccessStyle.Render(LagMessage(result)))
	} else {
		b.WriteString(WarningStyle.Render(LagMessage(result)))
	}

	b.WriteString("\n\n")
	b.WriteString(RenderLagTable(result.LagTable, result.SelectedLag))
	b.WriteString("\n\n")
	b.WriteString(FinalCapitalMessage(result.Stats))
	b.WriteString("\n")
	b.WriteString(TotalReturnMessage(result.Stats))
	b.WriteString("\n")
	b.WriteString(field("Buy and hold", fmt.Sprintf("%.2f%%", result.Stats.BuyAndHoldReturnPct)))
	b.WriteString(field("Round trips", strconv.Itoa(result.Stats.NumberOfTrades)))
	b.WriteString(field("Max drawdown", fmt.Sprintf("%.2f%%", result.Stats.MaxDrawdownPct)))

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderLagTable renders the lag correlation table. Undefined correlations show as "n/a".
// Tables longer than maxTableRows show the rows around the selected lag, or the first rows when
// none was selected, with a row counting the lags hidden on each side. The selected lag is highlighted.
func RenderLagTable(lagTable []types.LagCorrelation, selected optional.Option[int]) string {
	columns := []table.Column{
		{Title: "Lag", Width: 6},
		{Title: "Correlation", Width: 12},
		{Title: "Samples", Width: 8},
	}

	from, to := lagWindow(lagTable, selected)
	rows := make([]table.Row, 0, to-from+2)
	cursor := -1

	if from > 0 {
		rows = append(rows, hiddenRow(from))
	}

	for _, entry := range lagTable[from:to] {
		if selected.IsSome() && entry.Lag == selected.Unwrap() {
			cursor = len(rows)
		}

		corr := "n/a"
		if entry.Correlation.IsSome() {
			corr = fmt.Sprintf("%.4f", entry.Correlation.Unwrap())
		}

		rows = append(rows, table.Row{strconv.Itoa(entry.Lag), corr, strconv.Itoa(entry.Samples)})
	}

	if hidden := len(lagTable) - to; hidden > 0 {
		rows = append(rows, hiddenRow(hidden))
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()

	if cursor >= 0 {
		s.Selected = SuccessStyle
		t.SetCursor(cursor)
	}

	t.SetStyles(s)

	return t.View()
}

func field(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value + "\n"
}

// lagWindow returns the index range of lagTable shown in the summary.
func lagWindow(lagTable []types.LagCorrelation, selected optional.Option[int]) (int, int) {
	if len(lagTable) <= maxTableRows {
		return 0, len(lagTable)
	}

	center := 0

	if selected.IsSome() {
		for i, entry := range lagTable {
			if entry.Lag == selected.Unwrap() {
				center = i

				break
			}
		}
	}

	from := max(0, center-maxTableRows/2)
	to := min(len(lagTable), from+maxTableRows)

	return max(0, to-maxTableRows), to
}

func hiddenRow(n int) table.Row {
	return table.Row{"…", fmt.Sprintf("%d more", n), ""}
}
