package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/zone-intrusion/internal/logger"
)

// ActorMetadataKey is the request metadata key carrying the caller as user@host.
const ActorMetadataKey = "x-intrusion-actor"

// Server implements the MonitorService gRPC API on top of a Hub.
type Server struct {
	// hub provides the latest verdict and the verdict stream.
	hub *Hub
}

// NewServer wires the hub into a gRPC handler.
func NewServer(hub *Hub) *Server {
	return &Server{
		hub: hub,
	}
}

// GetAlarmState returns the latest verdict.
func (s *Server) GetAlarmState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.hub.Latest(), nil
}

// WatchVerdicts sends the latest verdict followed by every new one.
// It returns when the client goes away or the hub closes.
func (s *Server) WatchVerdicts(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	latest, verdicts, cancel := s.hub.SubscribeFromLatest()
	defer cancel()

	ctx = logger.WithKV(ctx, "actor", actorFromContext(ctx))

	logger.Info(ctx, "Verdict watcher connected")

	if err := stream.Send(latest); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Verdict watcher disconnected")

			return nil
		case msg, ok := <-verdicts:
			if !ok {
				return nil
			}

			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// actorFromContext returns the caller identity from request metadata, or "unknown".
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "unknown"
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "unknown"
	}

	return values[0]
}
