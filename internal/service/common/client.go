//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/zone-intrusion/internal/api/grpc/monitor"
	"github.com/oshokin/zone-intrusion/internal/config"
)

// Client wraps the gRPC MonitorService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the monitor.
	conn *grpc.ClientConn
	// api is the MonitorService client.
	api *api.MonitorServiceClient

	// callTimeout is the default timeout for unary calls.
	callTimeout time.Duration
	// actor is sent with every call when set.
	actor *Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls. Streams are not limited.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the actor to every call as request metadata.
func WithActor(actor *Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the monitor.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial monitor: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewMonitorServiceClient(conn),
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

// GetAlarmState retrieves the latest verdict.
func (c *Client) GetAlarmState(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetAlarmState(c.withActor(callCtx), new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get alarm state: %w", err)
	}

	return resp, nil
}

// WatchVerdicts opens a verdict stream that lasts until ctx is done or the monitor stops.
func (c *Client) WatchVerdicts(ctx context.Context) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.api.WatchVerdicts(c.withActor(ctx), new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("watch verdicts: %w", err)
	}

	return stream, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// withActor adds the actor to the outgoing metadata.
func (c *Client) withActor(ctx context.Context) context.Context {
	if c.actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor.String())
}
