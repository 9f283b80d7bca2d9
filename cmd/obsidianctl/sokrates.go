package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func sokratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sokrates",
		Short: "Get Sokrates feedback on a submission",
	}
	cmd.AddCommand(sokratesAskCmd())
	cmd.AddCommand(sokratesHistoryCmd())
	return cmd
}

func sokratesAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [file]",
		Short: "Grade the file (or stdin) and print the feedback callout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				submission []byte
				err        error
			)
			if len(args) == 1 && args[0] != "-" {
				submission, err = os.ReadFile(args[0])
			} else {
				submission, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			if strings.TrimSpace(string(submission)) == "" {
				return fmt.Errorf("submission is empty")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.container.SokratesService.Evaluate(cmd.Context(), &dto.SokratesEvaluateRequest{Submission: string(submission)})
			if err != nil {
				return err
			}
			fmt.Print(res.Callout)
			return nil
		},
	}
}

func sokratesHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored feedback, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.container.SokratesService.History(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			if len(res.Items) == 0 {
				fmt.Println("No feedback stored")
				return nil
			}
			for _, item := range res.Items {
				mark := color.GreenString("valid")
				if !item.IsValid {
					mark = color.RedString("invalid")
				}
				fmt.Printf("%s  %-7s  %s\n", item.CreatedAt.Format("2006-01-02 15:04"), mark, item.Summary)
			}
			fmt.Printf("%d of %d\n", len(res.Items), res.Total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	return cmd
}
