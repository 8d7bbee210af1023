package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/deeedob/clap-rci/wire"
)

// ServiceName is the fully-qualified RPC service name, as it would
// appear in a .proto package clap.rci.v1 { service PluginService }.
const ServiceName = "clap.rci.v1.PluginService"

// PluginServiceServer is the server-side interface for the plugin
// service's two RPCs, per spec.md §6/§4.9.
type PluginServiceServer interface {
	EventStream(EventStreamServer) error
	GetPluginInstances(context.Context, *wire.Empty) (*wire.PluginInstances, error)
}

// EventStreamServer is the server's view of the bidi-stream RPC.
type EventStreamServer interface {
	Send(*wire.OutboundMessage) error
	Recv() (*wire.InboundMessage, error)
	grpc.ServerStream
}

type eventStreamServer struct {
	grpc.ServerStream
}

func (s *eventStreamServer) Send(msg *wire.OutboundMessage) error {
	return s.ServerStream.SendMsg(msg)
}

func (s *eventStreamServer) Recv() (*wire.InboundMessage, error) {
	msg := new(wire.InboundMessage)
	if err := s.ServerStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func eventStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(PluginServiceServer).EventStream(&eventStreamServer{stream})
}

func getPluginInstancesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PluginServiceServer).GetPluginInstances(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/GetPluginInstances"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PluginServiceServer).GetPluginInstances(ctx, req.(*wire.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the service descriptor registered with a
// *grpc.Server, the hand-built analog of what protoc-gen-go-grpc would
// emit from a plugin_service.proto.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PluginServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPluginInstances", Handler: getPluginInstancesHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "EventStream",
			Handler:       eventStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "clap-rci/plugin_service.proto",
}

// RegisterPluginServiceServer registers srv with s, mirroring the
// generated Register<Service>Server function protoc-gen-go-grpc would
// produce.
func RegisterPluginServiceServer(s grpc.ServiceRegistrar, srv PluginServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// PluginServiceClient is the client-side interface for the plugin
// service.
type PluginServiceClient interface {
	EventStream(ctx context.Context, opts ...grpc.CallOption) (EventStreamClient, error)
	GetPluginInstances(ctx context.Context, in *wire.Empty, opts ...grpc.CallOption) (*wire.PluginInstances, error)
}

// EventStreamClient is the client's view of the bidi-stream RPC.
type EventStreamClient interface {
	Send(*wire.InboundMessage) error
	Recv() (*wire.OutboundMessage, error)
	grpc.ClientStream
}

type eventStreamClient struct {
	grpc.ClientStream
}

func (c *eventStreamClient) Send(msg *wire.InboundMessage) error {
	return c.ClientStream.SendMsg(msg)
}

func (c *eventStreamClient) Recv() (*wire.OutboundMessage, error) {
	msg := new(wire.OutboundMessage)
	if err := c.ClientStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

type pluginServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPluginServiceClient builds a PluginServiceClient over cc.
func NewPluginServiceClient(cc grpc.ClientConnInterface) PluginServiceClient {
	return &pluginServiceClient{cc: cc}
}

func (c *pluginServiceClient) EventStream(ctx context.Context, opts ...grpc.CallOption) (EventStreamClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], ServiceName+"/EventStream", opts...)
	if err != nil {
		return nil, err
	}
	return &eventStreamClient{stream}, nil
}

func (c *pluginServiceClient) GetPluginInstances(ctx context.Context, in *wire.Empty, opts ...grpc.CallOption) (*wire.PluginInstances, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	out := new(wire.PluginInstances)
	if err := c.cc.Invoke(ctx, ServiceName+"/GetPluginInstances", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
