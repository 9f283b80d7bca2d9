package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errCopilotDisabled = errors.New("copilot is disabled, set GOOGLE_GEMINI_API_KEY")

func copilotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copilot",
		Short: "Ask Gemini questions about vault files",
	}
	cmd.AddCommand(copilotSyncCmd())
	cmd.AddCommand(copilotAskCmd())
	cmd.AddCommand(copilotChatCmd())
	return cmd
}

func withCopilot(cmd *cobra.Command, run func(a *app, svc service.ICopilotService) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.container.CopilotService == nil {
		return errCopilotDisabled
	}
	svc := a.container.CopilotService
	svc.Preload(cmd.Context())
	return run(a, svc)
}

func copilotSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [files...]",
		Short: "Upload changed files; unchanged files are reused",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCopilot(cmd, func(a *app, svc service.ICopilotService) error {
				res, err := svc.Sync(cmd.Context(), &dto.CopilotSyncRequest{Paths: args})
				if err != nil {
					return err
				}
				for _, f := range res.Files {
					state := "reused"
					if f.Uploaded {
						state = "uploaded"
					}
					fmt.Printf("%-9s %s -> %s\n", state, f.Path, f.Name)
				}
				return nil
			})
		},
	}
}

func copilotAskCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Prepare the cache for the files and ask one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCopilot(cmd, func(a *app, svc service.ICopilotService) error {
				if _, err := svc.Prepare(cmd.Context(), &dto.CopilotPrepareRequest{Paths: files}); err != nil {
					return err
				}
				res, err := svc.Ask(cmd.Context(), &dto.CopilotAskRequest{Question: strings.Join(args, " ")})
				if err != nil {
					return err
				}
				fmt.Println(res.Answer)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Vault file to include (repeatable, defaults to COPILOT_FILES)")
	return cmd
}

func copilotChatCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat bound to the cache of the files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCopilot(cmd, func(a *app, svc service.ICopilotService) error {
				prepared, err := svc.Prepare(cmd.Context(), &dto.CopilotPrepareRequest{Paths: files})
				if err != nil {
					return err
				}
				color.Cyan("Chatting with %d files (cache %s). Empty line or Ctrl-D quits.", len(prepared.Files), prepared.Cache.Name)

				prompt := color.New(color.FgYellow, color.Bold)
				scanner := bufio.NewScanner(os.Stdin)
				for {
					prompt.Print("> ")
					if !scanner.Scan() {
						fmt.Println()
						return scanner.Err()
					}
					question := strings.TrimSpace(scanner.Text())
					if question == "" {
						return nil
					}

					res, err := svc.Ask(cmd.Context(), &dto.CopilotAskRequest{Question: question})
					if err != nil {
						color.Red("Error: %v", err)
						continue
					}
					fmt.Println(res.Answer)
				}
			})
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Vault file to include (repeatable, defaults to COPILOT_FILES)")
	return cmd
}
