package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tradedocs.v1.DocumentService"

// Method names on the document service.
const (
	MethodExtractDocument     = "ExtractDocument"
	MethodGetDocument         = "GetDocument"
	MethodCompareDocuments    = "CompareDocuments"
	MethodCompareWithExisting = "CompareWithExisting"
	MethodExportDocument      = "ExportDocument"
	MethodExportComparison    = "ExportComparison"
	MethodSubmitDirectory     = "SubmitDirectory"
)

// DocumentServiceServer is the server API. Requests and responses are
// google.protobuf.Struct messages so clients only need the well-known types.
type DocumentServiceServer interface {
	ExtractDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareWithExisting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportComparison(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(DocumentServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(DocumentServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// DocumentServiceDesc describes the document service for grpc.Server.RegisterService.
var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodExtractDocument, DocumentServiceServer.ExtractDocument),
		unary(MethodGetDocument, DocumentServiceServer.GetDocument),
		unary(MethodCompareDocuments, DocumentServiceServer.CompareDocuments),
		unary(MethodCompareWithExisting, DocumentServiceServer.CompareWithExisting),
		unary(MethodExportDocument, DocumentServiceServer.ExportDocument),
		unary(MethodExportComparison, DocumentServiceServer.ExportComparison),
		unary(MethodSubmitDirectory, DocumentServiceServer.SubmitDirectory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tradedocs/v1/documents.proto",
}

// RegisterDocumentServiceServer registers srv on s.
func RegisterDocumentServiceServer(s grpc.ServiceRegistrar, srv DocumentServiceServer) {
	s.RegisterService(&DocumentServiceDesc, srv)
}

// DocumentServiceClient calls the document service over conn.
type DocumentServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewDocumentServiceClient(conn grpc.ClientConnInterface) *DocumentServiceClient {
	return &DocumentServiceClient{conn: conn}
}

// Call invokes method with req.
func (c *DocumentServiceClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
