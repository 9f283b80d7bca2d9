package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/pkg/events"
	pktNats "github.com/pagpeter/obsidian-extensions/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func eventsCmd() *cobra.Command {
	var (
		subject string
		durable string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow domain events on the NATS stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.App.NatsURL == "" {
				return errors.New("NATS_URL is not set")
			}

			sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			color.Cyan("Following %s (Ctrl-C to stop)", subject)
			return sub.Tail(ctx, subject, durable, func(_ context.Context, e events.Event) error {
				payload, err := json.Marshal(e.Payload())
				if err != nil {
					return err
				}
				fmt.Printf("%s %s %s\n", e.Timestamp().Format("15:04:05"), color.YellowString(e.EventType()), payload)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", pktNats.SubjectPrefix+">", "Subject filter, e.g. events.copilot.>")
	cmd.Flags().StringVar(&durable, "durable", "", "Durable consumer name to resume from")
	return cmd
}
