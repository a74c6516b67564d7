package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"callwatch/internal/dirwatch"
)

func newWatchesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watches",
		Short: "List configured directory watches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := dirwatch.Plan(cfg.DirWatch)
			if len(entries) == 0 {
				fmt.Fprintln(out, "No dir_watch entries configured")
				return nil
			}
			fmt.Fprintln(out, renderTable(watchColumns, watchRows(entries)))
			return nil
		},
	}
}

func watchRows(entries []dirwatch.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Err != nil {
			rows = append(rows, []string{strconv.Itoa(entry.Index), "-", "-", "-", "-", "-", "-", "-", "invalid: " + entry.Err.Error()})
			continue
		}
		cfg := entry.Config
		deletion := "no"
		if cfg.DeleteAfter {
			deletion = cfg.DeleteMode
		}
		status := "ok"
		if cfg.Extensions.Empty() {
			status = "no extension"
		}
		rows = append(rows, []string{
			strconv.Itoa(entry.Index),
			cfg.Directory,
			cfg.Type,
			cfg.Extensions.String(),
			cfg.System.String(),
			cfg.Talkgroup.String(),
			formatFrequency(cfg.Frequency),
			deletion,
			status,
		})
	}
	return rows
}

func formatFrequency(freq *int) string {
	if freq == nil {
		return "-"
	}
	return strconv.Itoa(*freq)
}
