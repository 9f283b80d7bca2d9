package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func logsCmd() *cobra.Command {
	var (
		level  string
		module string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries of the log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			entries, err := logger.NewIsolatedLogger(cfg.App.LogFilePath).GetLogs(strings.ToUpper(level), module, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s %-5s %-15s %s", e.Timestamp, e.Level, e.Module, e.Message)
				switch e.Level {
				case "ERROR":
					color.Red("%s", line)
				case "WARN":
					color.Yellow("%s", line)
				default:
					fmt.Println(line)
				}
				if len(e.Details) > 0 {
					details, _ := json.Marshal(e.Details)
					fmt.Printf("    %s\n", details)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "Only this level (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Only this module, e.g. Copilot")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries")
	return cmd
}
