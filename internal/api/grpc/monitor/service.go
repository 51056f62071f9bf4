package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully qualified names of the monitor service and its methods.
const (
	ServiceName                = "intrusion.v1.MonitorService"
	GetAlarmStateFullMethod    = "/intrusion.v1.MonitorService/GetAlarmState"
	WatchVerdictsFullMethod    = "/intrusion.v1.MonitorService/WatchVerdicts"
	watchVerdictsStreamName    = "WatchVerdicts"
	getAlarmStateMethodName    = "GetAlarmState"
	monitorServiceMetadataPath = "intrusion/v1/monitor.proto"
)

// MonitorServiceServer is the server API for the monitor service.
type MonitorServiceServer interface {
	// GetAlarmState returns the latest frame verdict.
	GetAlarmState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// WatchVerdicts streams every frame verdict until the client or the monitor goes away.
	WatchVerdicts(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterMonitorServiceServer registers the implementation on the gRPC server.
func RegisterMonitorServiceServer(s grpc.ServiceRegistrar, srv MonitorServiceServer) {
	s.RegisterService(&monitorServiceDesc, srv)
}

// MonitorServiceClient is the client API for the monitor service.
type MonitorServiceClient struct {
	// cc is the connection calls are issued on.
	cc grpc.ClientConnInterface
}

// NewMonitorServiceClient creates a client over the connection.
func NewMonitorServiceClient(cc grpc.ClientConnInterface) *MonitorServiceClient {
	return &MonitorServiceClient{cc: cc}
}

// GetAlarmState returns the latest frame verdict.
func (c *MonitorServiceClient) GetAlarmState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)

	if err := c.cc.Invoke(ctx, GetAlarmStateFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// WatchVerdicts opens a verdict stream.
func (c *MonitorServiceClient) WatchVerdicts(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &monitorServiceDesc.Streams[0], WatchVerdictsFullMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

func getAlarmStateHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServiceServer).GetAlarmState(ctx, in) //nolint:forcetypeassert // Checked at registration.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetAlarmStateFullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		//nolint:forcetypeassert // Checked at registration.
		return srv.(MonitorServiceServer).GetAlarmState(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func watchVerdictsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Checked at registration.
	return srv.(MonitorServiceServer).WatchVerdicts(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{
		ServerStream: stream,
	})
}

// monitorServiceDesc describes the service for grpc.ServiceRegistrar.
var monitorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: getAlarmStateMethodName,
			Handler:    getAlarmStateHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    watchVerdictsStreamName,
			Handler:       watchVerdictsHandler,
			ServerStreams: true,
		},
	},
	Metadata: monitorServiceMetadataPath,
}
