package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/fall-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// Client wraps the gRPC monitor service client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the monitor.
	conn *grpc.ClientConn
	// api is the monitor service stub.
	api *api.MonitorClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the monitor.
// Note: this uses insecure transport credentials; the monitor listens on
// loopback by default.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial monitor: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewMonitorClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the raw status payload.
func (c *Client) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return resp, nil
}

// Status retrieves the engine snapshot.
func (c *Client) Status(ctx context.Context) (fall.Snapshot, error) {
	resp, err := c.GetStatus(ctx)
	if err != nil {
		return fall.Snapshot{}, err
	}

	return api.SnapshotFromProto(resp)
}

// CancelAlert asks the monitor to cancel a pending alert on behalf of actor.
func (c *Client) CancelAlert(ctx context.Context, actor *fall.Actor) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CancelAlert(callCtx, api.ActorToProto(actor))
	if err != nil {
		return nil, fmt.Errorf("cancel alert: %w", err)
	}

	return resp, nil
}

// ListIncidents retrieves up to limit journal events, newest first.
func (c *Client) ListIncidents(ctx context.Context, limit int) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListIncidents(callCtx, api.LimitToProto(limit))
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
