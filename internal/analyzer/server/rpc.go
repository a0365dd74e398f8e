package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msto63/lexana/internal/analyzer/service"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "lexana.v1.Analyzer"

const (
	analyzeMethod = "/" + ServiceName + "/Analyze"
	batchMethod   = "/" + ServiceName + "/Batch"
)

// AnalyzerServer is the server API of the Analyzer service. Requests and
// responses are generic structs carrying the JSON document form.
type AnalyzerServer interface {
	// Analyze expects {"input": string} and returns a result document
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Batch expects {"inputs": [string]} and returns {"results": [...],
	// "accepted": n, "rejected": n}
	Batch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// AnalyzerServiceDesc describes the Analyzer service for grpc.ServiceRegistrar
var AnalyzerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "Batch", Handler: batchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lexana/v1/analyzer.proto",
}

// RegisterAnalyzerServer registers srv on s
func RegisterAnalyzerServer(s grpc.ServiceRegistrar, srv AnalyzerServer) {
	s.RegisterService(&AnalyzerServiceDesc, srv)
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyzerServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func batchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).Batch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: batchMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyzerServer).Batch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// AnalyzerClient is the client API of the Analyzer service
type AnalyzerClient struct {
	cc grpc.ClientConnInterface
}

// NewAnalyzerClient creates a client on an existing connection
func NewAnalyzerClient(cc grpc.ClientConnInterface) *AnalyzerClient {
	return &AnalyzerClient{cc: cc}
}

// Analyze sends one input and decodes the result document
func (c *AnalyzerClient) Analyze(ctx context.Context, input string, opts ...grpc.CallOption) (*service.Document, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"input": input})
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, analyzeMethod, req, out, opts...); err != nil {
		return nil, err
	}

	var doc service.Document
	if err := fromStruct(out, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// BatchResult is the decoded response of Batch
type BatchResult struct {
	Results  []*service.Document `json:"results"`
	Accepted int                 `json:"accepted"`
	Rejected int                 `json:"rejected"`
}

// Batch sends several inputs and decodes their result documents
func (c *AnalyzerClient) Batch(ctx context.Context, inputs []string, opts ...grpc.CallOption) (*BatchResult, error) {
	list := make([]interface{}, len(inputs))
	for i, input := range inputs {
		list[i] = input
	}
	req, err := structpb.NewStruct(map[string]interface{}{"inputs": list})
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, batchMethod, req, out, opts...); err != nil {
		return nil, err
	}

	var result BatchResult
	if err := fromStruct(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// toStruct converts v through its JSON form
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes s into v through its JSON form
func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
