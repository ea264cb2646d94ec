package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/underlx/tflstatus/compute"
)

func newSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show how often each line of a mode was disrupted",
		Args:  cobra.NoArgs,
		RunE:  runSummary,
	}
	cmd.Flags().String("mode", "", "mode whose lines are summarised")
	cmd.Flags().Bool("all", false, "summarise the lines of every mode")
	cmd.Flags().Bool("breakdown", false, "count each disruption status separately")
	cmd.Flags().Int("threads", 0, "number of modes summarised at once")
	addWindowFlags(cmd)
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	window, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rdb, rootSqalxNode, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	compute.Initialize(rootSqalxNode, mainLog)

	modes := []string{cfg.Summary.Mode}
	heading := fmt.Sprintf("Disruptions of %s lines", cfg.Summary.Mode)
	if all, _ := cmd.Flags().GetBool("all"); all {
		modes = nil
		heading = "Disruptions of all lines"
	}
	summaries, err := compute.SummarizeModes(modes, window, cfg.Summary.Breakdown, cfg.Summary.Threads)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color.New(color.Bold).Fprintln(out, heading)
	renderSummaries(out, summaries, cfg.Summary.Breakdown)
	return nil
}

// renderSummaries writes summaries as a table. Percentages of lines without
// observations are shown as n/a
func renderSummaries(w io.Writer, summaries []compute.LineSummary, breakdown bool) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)

	header := table.Row{"Mode", "Line", "Observations", "Unplanned", "Unplanned %", "Planned", "Planned %"}
	if breakdown {
		for _, status := range compute.BreakdownStatuses() {
			header = append(header, status)
		}
	}
	tbl.AppendHeader(header)

	columnConfigs := []table.ColumnConfig{}
	for i := 3; i <= len(header); i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	tbl.SetColumnConfigs(columnConfigs)

	for _, s := range summaries {
		row := table.Row{
			s.Mode,
			s.Line,
			s.Total,
			s.Unplanned,
			formatPercentage(s.UnplannedPercentage()),
			s.Planned,
			formatPercentage(s.PlannedPercentage()),
		}
		if breakdown {
			for _, status := range compute.BreakdownStatuses() {
				row = append(row, fmt.Sprintf("%d (%s)", s.Breakdown[status], formatPercentage(s.StatusPercentage(status))))
			}
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d lines", len(summaries))})
	fmt.Fprintln(w, tbl.Render())
}

func formatPercentage(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", p)
}
