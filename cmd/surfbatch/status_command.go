package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"surfbatch/internal/logging"
	"surfbatch/internal/preflight"
	"surfbatch/internal/runstate"
)

const recentRunLimit = 10

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment health and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusError
				if result.Passed {
					kind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine(titleLabel(result.Name), kind, result.Detail, colorize))
			}

			if client, err := ctx.newWorkbenchClient(logging.NewNop()); err == nil {
				if version, err := client.Version(cmd.Context()); err == nil {
					fmt.Fprintln(out, renderStatusLine("Workbench Version", statusInfo, version, colorize))
				}
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Data Directory", statusInfo, cfg.Paths.DataDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Atlas Directory", statusInfo, cfg.Paths.AtlasDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Output Directory", statusInfo, cfg.Paths.OutputDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Tasks", statusInfo, strings.Join(cfg.Batch.Tasks, ", "), colorize))
			fmt.Fprintln(out, renderStatusLine("Runs", statusInfo, strings.Join(cfg.Batch.Runs, ", "), colorize))
			fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, strconv.Itoa(cfg.Batch.Jobs), colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Recent Runs", colorize) {
				fmt.Fprintln(out, line)
			}
			store, err := runstate.Open(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Run History", statusError, err.Error(), colorize))
				return nil
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), recentRunLimit)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Run History", statusError, err.Error(), colorize))
				return nil
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, renderStatusLine("Run History", statusInfo, "no runs recorded", colorize))
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(runs))
			return nil
		},
	}
}

func renderRunsTable(runs []runstate.Run) string {
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		finished := "running"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{
			shortRunID(run.ID),
			run.StartedAt.Format("2006-01-02 15:04"),
			finished,
			run.TotalSubjects,
			run.SucceededSubjects,
			run.FailedSubjects,
		})
	}
	headers := table.Row{"Run", "Started", "Finished", "Subjects", "Succeeded", "Failed"}
	return renderTable(headers, rows, 4, 5, 6)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
