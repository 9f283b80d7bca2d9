package main

import (
	"fmt"
	"os"

	"github.com/pagpeter/obsidian-extensions/internal/dto"

	"github.com/spf13/cobra"
)

func ankiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anki",
		Short: "Export card callouts to Anki",
	}
	cmd.AddCommand(ankiSyncCmd())
	cmd.AddCommand(ankiPreviewCmd())
	return cmd
}

func ankiSyncCmd() *cobra.Command {
	var deck string
	cmd := &cobra.Command{
		Use:   "sync [folder]",
		Short: "Add every card in the folder and its subfolders to a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.container.AnkiService.SyncFolder(cmd.Context(), &dto.AnkiSyncRequest{Folder: args[0], DeckName: deck})
			if err != nil {
				return err
			}
			fmt.Printf("%d cards from %d files added to %q\n", res.Cards, res.Files, res.DeckName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&deck, "deck", "d", "", "Target deck name")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}

func ankiPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [file]",
		Short: "Print the cards found in a markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.container.AnkiService.Preview(cmd.Context(), &dto.AnkiPreviewRequest{Content: string(content)})
			if len(res.Cards) == 0 {
				fmt.Println("No cards found")
				return nil
			}
			for i, card := range res.Cards {
				fmt.Printf("%d. Q: %s\n   A: %s\n", i+1, card.Question, card.Answer)
			}
			return nil
		},
	}
}
