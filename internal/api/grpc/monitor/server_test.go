package monitor

import (
	"context"
	"net"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
)

// testFrame builds a verdict with an active alarm on the first of two zones.
func testFrame(index int) *verdict.Frame {
	gate := zone.New("gate", []zone.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})
	yard := zone.New("yard", []zone.Point{{X: 20, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 30}})

	return &verdict.Frame{
		SessionID: "session-1",
		Index:     index,
		At:        time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		Zones: []verdict.Zone{
			{
				Zone:        gate,
				Intruders:   detection.IdentitySet{detection.Tracked(4): {}, detection.Untracked: {}},
				AlarmActive: true,
				Raised:      true,
			},
			{
				Zone:      yard,
				Intruders: detection.IdentitySet{},
			},
		},
	}
}

// TestToProto_FromProto checks that a verdict survives the wire format.
func TestToProto_FromProto(t *testing.T) {
	t.Parallel()

	snapshot := FromProto(ToProto(testFrame(7)))

	require.Equal(t, &Snapshot{
		SessionID:   "session-1",
		Frame:       7,
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		AlarmActive: true,
		Zones: []ZoneSnapshot{
			{
				Name:        "gate",
				AlarmActive: true,
				Intrusion:   true,
				Intruders:   []detection.TrackID{detection.Tracked(4), detection.Untracked},
			},
			{
				Name: "yard",
			},
		},
	}, snapshot)

	empty := FromProto(emptySnapshot("s"))
	require.Equal(t, -1, empty.Frame)
	require.True(t, empty.Timestamp.IsZero())
	require.Empty(t, empty.Zones)
}

// TestHub_Fanout delivers verdicts to every subscriber and closes them on Close.
func TestHub_Fanout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub("session-1")

	require.Equal(t, -1, FromProto(hub.Latest()).Frame)

	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()

	defer cancelSecond()

	require.Equal(t, 2, hub.Subscribers())
	require.NoError(t, hub.Publish(ctx, testFrame(1)))

	require.Equal(t, 1, FromProto(<-first).Frame)
	require.Equal(t, 1, FromProto(<-second).Frame)
	require.Equal(t, 1, FromProto(hub.Latest()).Frame)

	cancelFirst()
	cancelFirst()

	_, ok := <-first
	require.False(t, ok)
	require.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, ok = <-second
	require.False(t, ok)

	// Publishing after Close is ignored and late subscribers get a closed channel.
	require.NoError(t, hub.Publish(ctx, testFrame(2)))

	late, _ := hub.Subscribe()
	_, ok = <-late
	require.False(t, ok)
}

// TestHub_SubscribeFromLatest hands out the current verdict once, outside the channel.
func TestHub_SubscribeFromLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub("session-1")

	latest, verdicts, cancel := hub.SubscribeFromLatest()
	require.Equal(t, -1, FromProto(latest).Frame)
	require.Empty(t, verdicts)

	cancel()

	require.NoError(t, hub.Publish(ctx, testFrame(1)))

	latest, verdicts, cancel = hub.SubscribeFromLatest()
	defer cancel()

	require.Equal(t, 1, FromProto(latest).Frame)
	require.Empty(t, verdicts, "the current verdict is not queued again")

	require.NoError(t, hub.Publish(ctx, testFrame(2)))
	require.Len(t, verdicts, 1)
	require.Equal(t, 2, FromProto(<-verdicts).Frame)

	require.NoError(t, hub.Close())

	latest, verdicts, _ = hub.SubscribeFromLatest()
	require.Equal(t, 2, FromProto(latest).Frame)

	_, ok := <-verdicts
	require.False(t, ok)
}

// TestHub_SlowSubscriber never blocks the publisher.
func TestHub_SlowSubscriber(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		hub := NewHub("session-1")
		verdicts, cancel := hub.Subscribe()

		defer cancel()

		done := make(chan struct{})

		go func() {
			defer close(done)

			for i := range SubscriberBuffer * 2 {
				_ = hub.Publish(context.Background(), testFrame(i))
			}
		}()

		synctest.Wait()

		select {
		case <-done:
		default:
			t.Fatal("publisher blocked on a slow subscriber")
		}

		require.Len(t, verdicts, SubscriberBuffer)
		require.Equal(t, 0, FromProto(<-verdicts).Frame)
		require.Equal(t, SubscriberBuffer*2-1, FromProto(hub.Latest()).Frame)
	})
}

// TestServer_Bufconn exercises both RPCs through a real gRPC server.
func TestServer_Bufconn(t *testing.T) {
	t.Parallel()

	hub := NewHub("session-1")
	listener := bufconn.Listen(1 << 20)

	srv := grpc.NewServer()
	RegisterMonitorServiceServer(srv, NewServer(hub))

	go func() {
		_ = srv.Serve(listener)
	}()

	defer srv.Stop()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewMonitorServiceClient(conn)

	state, err := client.GetAlarmState(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, "session-1", FromProto(state).SessionID)
	require.Equal(t, -1, FromProto(state).Frame)

	stream, err := client.WatchVerdicts(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	// The stream starts with the latest verdict.
	msg, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, -1, FromProto(msg).Frame)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish(ctx, testFrame(3)))

	msg, err = stream.Recv()
	require.NoError(t, err)
	require.True(t, FromProto(msg).AlarmActive)
	require.Equal(t, 3, FromProto(msg).Frame)

	state, err = client.GetAlarmState(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, 3, FromProto(state).Frame)

	// Closing the hub ends the stream.
	require.NoError(t, hub.Close())

	_, err = stream.Recv()
	require.Error(t, err)
}

// TestActorFromContext reads the caller from request metadata.
func TestActorFromContext(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unknown", actorFromContext(context.Background()))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(ActorMetadataKey, "guard@host"))
	require.Equal(t, "guard@host", actorFromContext(ctx))
}
