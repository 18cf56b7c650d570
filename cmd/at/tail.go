package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/agenttrace/agenttrace/internal/events"
	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:     "tail",
	Short:   "Follow the live event stream",
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		// Prefer the bus when a NATS URL is configured; fall back to the
		// server's SSE stream otherwise.
		natsURL := os.Getenv("AGENTTRACE_NATS_URL")
		if natsURL == "" {
			natsURL = activeProfileNATSURL()
		}
		if natsURL != "" {
			return tailNATS(ctx, natsURL, sessionID)
		}
		return tailSSE(ctx, sessionID)
	},
}

// tailSSE follows the server's SSE stream.
func tailSSE(ctx context.Context, sessionID string) error {
	ch, cancel, err := traceClient.StreamEvents(ctx)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if sessionID != "" && e.SessionID != sessionID {
				continue
			}
			printEventLine(e)
		}
	}
}

// tailNATS follows the mirrored event subjects on the bus.
func tailNATS(ctx context.Context, natsURL, sessionID string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.SubjectAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			var e model.Event
			if err := json.Unmarshal(data, &e); err != nil {
				log.Printf("skipping undecodable event: %v", err)
				continue
			}
			if sessionID != "" && e.SessionID != sessionID {
				continue
			}
			printEventLine(&e)
		}
	}
}

func init() {
	tailCmd.Flags().String("session", "", "only show events for this session")
}
