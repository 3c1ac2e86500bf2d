package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/ogimage/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent capture runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return errors.New("capture history is disabled; set history.path in the configuration")
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if runID != "" {
				captures, err := store.Captures(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(captures) == 0 {
					fmt.Fprintf(out, "No captures recorded for run %s\n", runID)
					return nil
				}
				fmt.Fprintln(out, renderCaptures(captures))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No capture runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the captures of one run")
	return cmd
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatElapsed(run.Elapsed),
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Failed),
			run.Error,
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Elapsed", "Total", "Failed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderCaptures(captures []history.Capture) string {
	rows := make([][]string, 0, len(captures))
	for _, c := range captures {
		status := "ok"
		if c.Error != "" {
			status = c.Error
		}
		rows = append(rows, []string{c.Path, c.OutputPath, formatElapsed(c.Elapsed), status})
	}
	return renderTable(
		[]string{"Path", "Output", "Elapsed", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
