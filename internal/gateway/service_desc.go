package gateway

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nucleus.zuora.v1.DiscoveryService"

// DiscoveryServer is the server API of the discovery service. Requests and
// responses are google.protobuf.Struct documents.
type DiscoveryServer interface {
	Discover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDatasets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCatalogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(DiscoveryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DiscoveryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DiscoveryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the discovery service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Discover", Handler: unaryHandler("Discover", DiscoveryServer.Discover)},
		{MethodName: "Validate", Handler: unaryHandler("Validate", DiscoveryServer.Validate)},
		{MethodName: "ListDatasets", Handler: unaryHandler("ListDatasets", DiscoveryServer.ListDatasets)},
		{MethodName: "GetCatalog", Handler: unaryHandler("GetCatalog", DiscoveryServer.GetCatalog)},
		{MethodName: "ListCatalogs", Handler: unaryHandler("ListCatalogs", DiscoveryServer.ListCatalogs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nucleus/zuora/v1/discovery.proto",
}

// RegisterDiscoveryServer registers srv on s.
func RegisterDiscoveryServer(s grpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client calls a remote discovery service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Discover(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Discover", in, opts...)
}

func (c *Client) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Validate", in, opts...)
}

func (c *Client) ListDatasets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListDatasets", in, opts...)
}

func (c *Client) GetCatalog(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetCatalog", in, opts...)
}

func (c *Client) ListCatalogs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListCatalogs", in, opts...)
}
