// Package report renders plans, gas plans and no-decompression tables for
// the terminal or as markdown.
package report

import (
	"fmt"
	"io"

	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/buhlmann"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/gasplan"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format selects the table renderer
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// writeTitle prints a heading above a table. Table titles are wrapped to the
// column width, which would split long ones.
func writeTitle(w io.Writer, title string, format Format) {
	if format == FormatMarkdown {
		fmt.Fprintf(w, "### %s\n\n", title)
		return
	}
	fmt.Fprintln(w, title)
}

func render(t table.Writer, format Format) {
	if format == FormatMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

// WritePlan renders the summary, the compacted schedule and, when gp is not
// nil, the gas requirements.
func WritePlan(w io.Writer, name string, plan *dive.Plan, gp *gasplan.GasPlan, format Format) error {
	if plan.IsEmpty() {
		_, err := fmt.Fprintln(w, "(empty plan)")
		return err
	}

	title := "Dive plan"
	if name != "" {
		title = fmt.Sprintf("Dive plan: %s", name)
	}

	writeSummary(w, title, plan, format)
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	writeSchedule(w, plan, format)

	if gp != nil {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		writeGas(w, plan, gp, format)
	}
	return nil
}

func writeSummary(w io.Writer, title string, plan *dive.Plan, format Format) {
	writeTitle(w, title, format)
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Runtime", fmt.Sprintf("%d min", plan.Runtime())},
		{"Decompression", fmt.Sprintf("%d min", plan.TotalDecoMinutes())},
		{"Max depth", fmt.Sprintf("%.1f m", plan.MaxDepth())},
		{"Deepest ceiling", fmt.Sprintf("%.1f m", plan.DeepestCeiling())},
		{"Average depth", fmt.Sprintf("%.1f m", plan.AverageDepth())},
		{"CNS", fmt.Sprintf("%.1f %%", plan.TotalCNS)},
		{"OTU", fmt.Sprintf("%.0f", plan.TotalOTU)},
	})
	if minute, ok := plan.FirstDecoMinute(); ok {
		t.AppendRow(table.Row{"First stop", fmt.Sprintf("minute %d", minute)})
	}
	render(t, format)
}

func writeSchedule(w io.Writer, plan *dive.Plan, format Format) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Runtime", "Segment", "Depth", "Time", "Gas", "Ceiling", "TTS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for _, s := range plan.Compacted() {
		kind := s.Type().String()
		if s.IsDecompressionStop() {
			kind = "stop"
		}

		depth := fmt.Sprintf("%.0f m", s.EndDepth)
		if s.StartDepth != s.EndDepth {
			depth = fmt.Sprintf("%.0f → %.0f m", s.StartDepth, s.EndDepth)
		}

		tts := ""
		if s.HasTTS() {
			tts = fmt.Sprintf("%d", s.TTS())
		}

		t.AppendRow(table.Row{
			s.End(), kind, depth, s.Duration, s.Cylinder.Label(),
			fmt.Sprintf("%.1f", s.Ceiling), tts,
		})
	}
	render(t, format)
}

func writeGas(w io.Writer, plan *dive.Plan, gp *gasplan.GasPlan, format Format) {
	densities := plan.MaxGasDensity()

	t := newTable(w)
	t.AppendHeader(table.Row{"Cylinder", "Gas", "Normal (L)", "Reserve (L)", "End (bar)", "Worst case (bar)", "Density (g/L)", ""})

	for _, c := range gp.Cylinders {
		worst, ok := c.PressureAfterWorstCase()
		status := "ok"
		if !ok {
			status = "INSUFFICIENT"
		}
		t.AppendRow(table.Row{
			c.Cylinder.Label(),
			c.Cylinder.Gas.String(),
			fmt.Sprintf("%.0f", c.Normal),
			fmt.Sprintf("%.0f", c.Extra),
			fmt.Sprintf("%.0f", c.PressureAfterNormal()),
			fmt.Sprintf("%.0f", worst),
			fmt.Sprintf("%.1f", densities[c.Cylinder.ID]),
			status,
		})
	}
	t.AppendFooter(table.Row{"Total", "", fmt.Sprintf("%.0f", gp.TotalNormal()), fmt.Sprintf("%.0f", gp.TotalExtra())})
	render(t, format)
}

// WriteNDL renders a depth / no-decompression limit table
func WriteNDL(w io.Writer, gas string, depths []float64, limits []int, format Format) error {
	if len(depths) != len(limits) {
		return fmt.Errorf("got %d depths but %d limits", len(depths), len(limits))
	}

	writeTitle(w, fmt.Sprintf("No-decompression limits (%s)", gas), format)
	t := newTable(w)
	t.AppendHeader(table.Row{"Depth (m)", "NDL (min)"})
	for i, depth := range depths {
		limit := fmt.Sprintf("%d", limits[i])
		if limits[i] >= buhlmann.MaxNoDecompressionLimit {
			limit = fmt.Sprintf("> %d", buhlmann.MaxNoDecompressionLimit)
		}
		t.AppendRow(table.Row{fmt.Sprintf("%.0f", depth), limit})
	}
	render(t, format)
	return nil
}

// Preference is one row of the preference listing
type Preference struct {
	Key   string
	Kind  string
	Value string
}

// WritePreferences renders stored preferences
func WritePreferences(w io.Writer, prefs []Preference, format Format) {
	if len(prefs) == 0 {
		fmt.Fprintln(w, "(no preferences stored)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Kind", "Value"})
	for _, p := range prefs {
		t.AppendRow(table.Row{p.Key, p.Kind, p.Value})
	}
	render(t, format)
}

// WriteArchive renders a listing of archived plans
func WriteArchive(w io.Writer, records []archive.ArchivedPlan, format Format) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(no archived plans)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Created", "Name", "Max depth", "Runtime", "Deco", "CNS"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.ID.String(),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Name,
			fmt.Sprintf("%.0f m", r.MaxDepth),
			fmt.Sprintf("%d min", r.Runtime),
			fmt.Sprintf("%d min", r.DecoMinutes),
			fmt.Sprintf("%.1f %%", r.CNS),
		})
	}
	render(t, format)
}
