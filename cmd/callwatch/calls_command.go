package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"callwatch/internal/callstore"
)

func newCallsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List recently imported calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			store, err := openCallStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list calls: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No calls imported yet")
				return nil
			}
			fmt.Fprintln(out, renderTable(callColumns, callRows(records)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of calls to show")
	cmd.AddCommand(newCallsExportCommand(ctx))
	return cmd
}

func newCallsExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write the stored audio of a call to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid call id %q", args[0])
			}
			store, err := openCallStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			audio, err := store.Audio(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], audio, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes of call %d to %s\n", len(audio), id, args[1])
			return nil
		},
	}
}

func openCallStore(ctx *commandContext) (*callstore.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Store.Enabled {
		return nil, errors.New("call store is disabled; set [store] enabled = true")
	}
	store, err := callstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open call store: %w", err)
	}
	return store, nil
}

func callRows(records []callstore.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.DateTime.Local().Format("2006-01-02 15:04:05"),
			rec.SourceType,
			strconv.Itoa(rec.System),
			strconv.Itoa(rec.Talkgroup),
			formatFrequency(rec.Frequency),
			rec.AudioName,
			strconv.Itoa(rec.AudioSize),
		})
	}
	return rows
}
