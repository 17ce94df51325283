package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/fall-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// Options configures a single fall-ctl command.
type Options struct {
	// ServerAddress is the monitor control API address.
	ServerAddress string
	// Timeout bounds each RPC call.
	Timeout time.Duration
	// JSON prints raw payloads as JSON.
	JSON bool
	// Limit caps the number of history events.
	Limit int
	// Out receives command output, defaults to stdout.
	Out io.Writer
}

// DefaultHistoryLimit is the number of events history prints by default.
const DefaultHistoryLimit = 20

// errOptionsRequired is returned when a command is run without options.
var errOptionsRequired = errors.New("options must be provided")

// RunStatus prints the monitor phase.
func RunStatus(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(c *Client, out io.Writer) error {
		resp, err := c.GetStatus(ctx)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(out, resp)
		}

		snapshot, err := api.SnapshotFromProto(resp)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, formatSnapshot(snapshot))

		return err
	})
}

// RunCancel cancels a pending alert and prints the outcome.
func RunCancel(ctx context.Context, opts *Options) error {
	actor, err := DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor, cancelling anonymously", "error", err)
	}

	return withClient(ctx, opts, func(c *Client, out io.Writer) error {
		resp, err := c.CancelAlert(ctx, actor)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(out, resp)
		}

		cancelled, phase, err := api.CancelResultFromProto(resp)
		if err != nil {
			return err
		}

		if cancelled {
			_, err = fmt.Fprintln(out, "Alert canceled.")
		} else {
			_, err = fmt.Fprintf(out, "No alert pending (phase: %s)\n", phase)
		}

		return err
	})
}

// RunHistory prints recent incident events, newest first.
func RunHistory(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(c *Client, out io.Writer) error {
		resp, err := c.ListIncidents(ctx, opts.Limit)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(out, resp)
		}

		events, err := api.EventsFromProto(resp)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			_, err = fmt.Fprintln(out, "No incidents recorded")

			return err
		}

		for _, event := range events {
			if _, err = fmt.Fprintln(out, formatEvent(event)); err != nil {
				return err
			}
		}

		return nil
	})
}

// withClient dials the monitor, runs fn and closes the connection.
func withClient(ctx context.Context, opts *Options, fn func(c *Client, out io.Writer) error) error {
	if opts == nil {
		return errOptionsRequired
	}

	address := opts.ServerAddress
	if address == "" {
		address = config.DefaultListenAddress
	}

	var out io.Writer = os.Stdout
	if opts.Out != nil {
		out = opts.Out
	}

	c, err := Dial(ctx, address, WithCallTimeout(opts.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = c.Close()
	}()

	logger.DebugKV(ctx, "Connected to monitor", "server_address", address)

	return fn(c, out)
}

// printJSON writes msg as indented JSON.
func printJSON(out io.Writer, msg *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	_, err = fmt.Fprintln(out, string(data))

	return err
}

// formatSnapshot renders a snapshot as a single readable line.
func formatSnapshot(snapshot fall.Snapshot) string {
	line := fmt.Sprintf("phase: %s, samples: %d", snapshot.Phase, snapshot.Samples)

	switch snapshot.Phase {
	case fall.PhaseFreeFalling:
		line += ", falling since " + snapshot.FallStart.Format(time.RFC3339Nano)
	case fall.PhaseAlertPending:
		line += fmt.Sprintf(", alert %s raised at %s",
			snapshot.IncidentID, snapshot.AlertStart.Format(time.RFC3339Nano))
	case fall.PhaseIdle:
	}

	return line
}

// formatEvent renders a journal event as a single readable line.
func formatEvent(event fall.IncidentEvent) string {
	line := fmt.Sprintf("%s  %s  %s", event.Timestamp.Format(time.RFC3339), event.IncidentID, event.Kind)
	if event.Detail != "" {
		line += "  (" + event.Detail + ")"
	}

	return line
}
