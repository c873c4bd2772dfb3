package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
)

// The gRPC surface uses google.protobuf.Struct messages, so clients need no generated stubs:
//
//	Recommend({variety, soilN, ..., soilB}) -> {results, lines}
//	ListVarieties({}) -> {varieties: [{id, label, short_label}]}
const (
	GRPCServiceName     = "agri.advisor.FertilizerAdvisor"
	methodRecommend     = "/" + GRPCServiceName + "/Recommend"
	methodListVarieties = "/" + GRPCServiceName + "/ListVarieties"
)

type FertilizerAdvisorServer interface {
	Recommend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListVarieties(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var FertilizerAdvisorServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*FertilizerAdvisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: recommendHandler},
		{MethodName: "ListVarieties", Handler: listVarietiesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agri/advisor.proto",
}

func RegisterFertilizerAdvisorServer(s grpc.ServiceRegistrar, srv FertilizerAdvisorServer) {
	s.RegisterService(&FertilizerAdvisorServiceDesc, srv)
}

func recommendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FertilizerAdvisorServer).Recommend(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRecommend}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FertilizerAdvisorServer).Recommend(ctx, req.(*structpb.Struct))
	})
}

func listVarietiesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FertilizerAdvisorServer).ListVarieties(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListVarieties}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FertilizerAdvisorServer).ListVarieties(ctx, req.(*structpb.Struct))
	})
}

// GRPCServer serves the advisor engine over gRPC.
type GRPCServer struct {
	a *Advisor
}

func NewGRPCServer(a *Advisor) *GRPCServer { return &GRPCServer{a: a} }

func (s *GRPCServer) Recommend(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, msgInvalidBody)
	}
	var req FertilizerRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, msgInvalidBody)
	}

	rep, err := s.a.engine.Recommend(req.SoilTest)
	if errors.Is(err, fertilizer.ErrInvalidVariety) {
		s.a.metrics.ObserveRequest("grpc_recommend", 400)
		return nil, status.Error(codes.InvalidArgument, msgInvalidVariety)
	}
	if err != nil {
		log.Printf("advisor: grpc recommend: %v", err)
		s.a.metrics.ObserveRequest("grpc_recommend", 500)
		return nil, status.Error(codes.Internal, msgFertilizerFailed)
	}
	s.a.metrics.ObserveReport(rep)
	s.a.metrics.ObserveRequest("grpc_recommend", 200)

	lines := rep.Lines()
	ls := make([]any, len(lines))
	for i, l := range lines {
		ls[i] = l
	}
	return structpb.NewStruct(map[string]any{
		"results": rep.Text(),
		"lines":   ls,
	})
}

func (s *GRPCServer) ListVarieties(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	vs := varietyDTOs(s.a.engine.Varieties())
	list := make([]any, 0, len(vs))
	for _, v := range vs {
		list = append(list, map[string]any{"id": v.ID, "label": v.Label, "short_label": v.ShortLabel})
	}
	return structpb.NewStruct(map[string]any{"varieties": list})
}

// FertilizerAdvisorClient calls the service through any gRPC connection.
type FertilizerAdvisorClient struct {
	cc grpc.ClientConnInterface
}

func NewFertilizerAdvisorClient(cc grpc.ClientConnInterface) *FertilizerAdvisorClient {
	return &FertilizerAdvisorClient{cc: cc}
}

func (c *FertilizerAdvisorClient) Recommend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodRecommend, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FertilizerAdvisorClient) ListVarieties(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListVarieties, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
