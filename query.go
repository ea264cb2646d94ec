package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SaidinWoT/timespan"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/underlx/tflstatus/dataobjects"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime parses s in one of timeLayouts. Times without a zone are UTC
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected a date like 2023-01-05 or 2023-01-05T08:00", s)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "only consider observations at or after this time")
	cmd.Flags().String("to", "", "only consider observations before this time")
	cmd.Flags().Duration("for", 0, "only consider observations within this long after --from")
}

// windowFromFlags returns the time range selected by the flags of addWindowFlags
func windowFromFlags(cmd *cobra.Command) (dataobjects.ObservationFilter, error) {
	filter := dataobjects.ObservationFilter{}
	flags := cmd.Flags()

	if from, _ := flags.GetString("from"); from != "" {
		t, err := parseTime(from)
		if err != nil {
			return filter, err
		}
		filter.From = t
	}
	if to, _ := flags.GetString("to"); to != "" {
		t, err := parseTime(to)
		if err != nil {
			return filter, err
		}
		filter.To = t
	}
	if flags.Changed("for") {
		duration, _ := flags.GetDuration("for")
		switch {
		case filter.From.IsZero():
			return filter, errors.New("--for requires --from")
		case !filter.To.IsZero():
			return filter, errors.New("only one of --to and --for may be given")
		}
		filter = filter.During(timespan.New(filter.From, duration))
	}
	return filter, nil
}

func addFilterFlags(cmd *cobra.Command) {
	addWindowFlags(cmd)
	cmd.Flags().StringSlice("mode", nil, "only consider these modes")
	cmd.Flags().StringSlice("line", nil, "only consider these lines")
	cmd.Flags().StringSlice("status", nil, "only consider observations reporting one of these statuses")
}

// filterFromFlags returns the filter selected by the flags of addFilterFlags.
// Sets whose flag wasn't given impose no constraint
func filterFromFlags(cmd *cobra.Command) (dataobjects.ObservationFilter, error) {
	filter, err := windowFromFlags(cmd)
	if err != nil {
		return filter, err
	}
	flags := cmd.Flags()
	sets := []struct {
		name string
		dest *[]string
	}{
		{"mode", &filter.Modes},
		{"line", &filter.Lines},
		{"status", &filter.Statuses},
	}
	for _, set := range sets {
		if !flags.Changed(set.name) {
			continue
		}
		values, err := flags.GetStringSlice(set.name)
		if err != nil {
			return filter, err
		}
		*set.dest = append([]string{}, values...)
	}
	return filter, nil
}

func newCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the observations matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadStoreConfig(cmd)
			if err != nil {
				return err
			}
			rdb, rootSqalxNode, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			count, err := query.Count(rootSqalxNode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func newObservationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "observations",
		Short: "List the observations matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadStoreConfig(cmd)
			if err != nil {
				return err
			}
			rdb, rootSqalxNode, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			observations, err := query.Observations(rootSqalxNode)
			if err != nil {
				return err
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Time", "Mode", "Line", "Statuses"})
			for _, observation := range observations {
				statuses, err := observation.Statuses(rootSqalxNode)
				if err != nil {
					return err
				}
				descriptions := make([]string, len(statuses))
				for i, status := range statuses {
					descriptions[i] = status.Description
				}
				tbl.AppendRow(table.Row{
					observation.Time.UTC().Format("2006-01-02 15:04"),
					observation.Mode,
					observation.Line,
					strings.Join(descriptions, ", "),
				})
			}
			tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d observations", len(observations))})
			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func queryFromFlags(cmd *cobra.Command) (*dataobjects.ObservationQuery, error) {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return dataobjects.NewObservationQuery(filter)
}
