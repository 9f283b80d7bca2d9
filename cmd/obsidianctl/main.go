package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "obsidianctl",
		Short:         "Copilot, Anki export and Sokrates feedback for an Obsidian vault",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(copilotCmd())
	rootCmd.AddCommand(ankiCmd())
	rootCmd.AddCommand(sokratesCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
