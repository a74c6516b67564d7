package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"callwatch/internal/config"
	"callwatch/internal/dirwatch"
	"callwatch/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Point each [[dir_watch]] directory at a recorder output folder, then run `callwatch run`.")
			fmt.Fprintf(out, "Secrets may live in %s next to the config file.\n", filepath.Join(filepath.Dir(target), ".env"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file and watch entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			status := newStatusPrinter(out)

			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			status.section("Watches")
			entries := dirwatch.Plan(cfg.DirWatch)
			if len(entries) == 0 {
				status.line("dir_watch", statusWarn, "no entries configured")
			}
			for _, entry := range entries {
				kind, message := watchHealth(entry)
				status.line(fmt.Sprintf("dir_watch[%d]", entry.Index), kind, message)
			}
			status.section("Preflight")
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
				}
				status.line(result.Name, kind, result.Detail)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// watchHealth classifies a planned entry for display.
func watchHealth(entry dirwatch.Entry) (statusKind, string) {
	if entry.Err != nil {
		return statusError, entry.Err.Error()
	}
	dir := entry.Config.Directory
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		return statusWarn, fmt.Sprintf("%s is not accessible", dir)
	case !info.IsDir():
		return statusError, fmt.Sprintf("%s is not a directory", dir)
	case entry.Config.Extensions.Empty():
		return statusWarn, fmt.Sprintf("%s has no extension; nothing will match", dir)
	}
	return statusOK, fmt.Sprintf("%s (%s, .%s)", dir, entry.Config.Type, entry.Config.Extensions)
}
