package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fallalarm.v1.MonitorService"

// Full method names.
const (
	GetStatusMethod     = "/" + ServiceName + "/GetStatus"
	CancelAlertMethod   = "/" + ServiceName + "/CancelAlert"
	ListIncidentsMethod = "/" + ServiceName + "/ListIncidents"
)

// MonitorServer is the server API of the monitor service.
type MonitorServer interface {
	// GetStatus returns the engine phase and timestamps.
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// CancelAlert resolves a pending alert.
	CancelAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ListIncidents returns recent journal events.
	ListIncidents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the monitor service for grpc.Server.RegisterService.
// It follows api/proto/fallalarm/v1/monitor.proto.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "CancelAlert", Handler: cancelAlertHandler},
		{MethodName: "ListIncidents", Handler: listIncidentsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fallalarm/v1/monitor.proto",
}

// RegisterMonitorServer registers srv on registrar.
func RegisterMonitorServer(registrar grpc.ServiceRegistrar, srv MonitorServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func getStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).GetStatus(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).GetStatus(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func cancelAlertHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).CancelAlert(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CancelAlertMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).CancelAlert(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func listIncidentsHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).ListIncidents(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListIncidentsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).ListIncidents(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

// MonitorClient is the client API of the monitor service.
type MonitorClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorClient creates a client stub over cc.
func NewMonitorClient(cc grpc.ClientConnInterface) *MonitorClient {
	return &MonitorClient{cc: cc}
}

// GetStatus calls MonitorService.GetStatus.
func (c *MonitorClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// CancelAlert calls MonitorService.CancelAlert.
func (c *MonitorClient) CancelAlert(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CancelAlertMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListIncidents calls MonitorService.ListIncidents.
func (c *MonitorClient) ListIncidents(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListIncidentsMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
