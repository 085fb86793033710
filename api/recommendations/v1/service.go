package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
)

// RecommendationsServer is the server API for the Recommendations service.
type RecommendationsServer interface {
	Recommend(ctx context.Context, req *RecommendationRequest) (*RecommendationResponse, error)
}

// RegisterRecommendationsServer registers srv on s.
func RegisterRecommendationsServer(s grpc.ServiceRegistrar, srv RecommendationsServer) {
	s.RegisterService(&RecommendationsServiceDesc, srv)
}

// RecommendationsServiceDesc is the grpc.ServiceDesc for the Recommendations
// service. Interceptors observe the Go request and response types; the
// conversion to wire messages happens here.
var RecommendationsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecommendationsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: RecommendMethod,
			Handler:    recommendHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: FileName,
}

func recommendHandler(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := NewRequestMessage()
	if err := dec(in); err != nil {
		return nil, err
	}

	req, err := RequestFromMessage(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	call := func(ctx context.Context, r interface{}) (interface{}, error) {
		resp, err := srv.(RecommendationsServer).Recommend(ctx, r.(*RecommendationRequest))
		if err != nil {
			return nil, err
		}
		if resp == nil {
			resp = &RecommendationResponse{}
		}
		return resp.ToMessage(), nil
	}

	if interceptor == nil {
		return call(ctx, req)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RecommendFullMethodName,
	}
	return interceptor(ctx, req, info, call)
}

// RecommendationsClient is the client API for the Recommendations service.
type RecommendationsClient interface {
	Recommend(ctx context.Context, in *RecommendationRequest, opts ...grpc.CallOption) (*RecommendationResponse, error)
}

type recommendationsClient struct {
	cc grpc.ClientConnInterface
}

// NewRecommendationsClient returns a client bound to cc.
func NewRecommendationsClient(cc grpc.ClientConnInterface) RecommendationsClient {
	return &recommendationsClient{cc: cc}
}

func (c *recommendationsClient) Recommend(
	ctx context.Context,
	in *RecommendationRequest,
	opts ...grpc.CallOption,
) (*RecommendationResponse, error) {
	out := dynamicpb.NewMessage(responseDesc)
	if err := c.cc.Invoke(ctx, RecommendFullMethodName, in.ToMessage(), out, opts...); err != nil {
		return nil, err
	}
	return ResponseFromMessage(out)
}
