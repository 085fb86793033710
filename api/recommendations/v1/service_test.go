package v1

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/reflect/protoregistry"
)

type stubServer struct {
	resp *RecommendationResponse
	err  error
	got  *RecommendationRequest
}

func (s *stubServer) Recommend(_ context.Context, req *RecommendationRequest) (*RecommendationResponse, error) {
	s.got = req
	return s.resp, s.err
}

func dialStub(t *testing.T, srv RecommendationsServer, opts ...grpc.ServerOption) RecommendationsClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterRecommendationsServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewRecommendationsClient(conn)
}

func TestDescriptor(t *testing.T) {
	t.Parallel()

	fd, err := protoregistry.GlobalFiles.FindFileByPath(FileName)
	require.NoError(t, err)
	assert.Equal(t, File(), fd)

	sd := ServiceDescriptor()
	assert.Equal(t, ServiceName, string(sd.FullName()))
	method := sd.Methods().ByName(RecommendMethod)
	require.NotNil(t, method)
	assert.Equal(t, "recommendations.RecommendationRequest", string(method.Input().FullName()))
	assert.Equal(t, "recommendations.RecommendationResponse", string(method.Output().FullName()))

	assert.Equal(t, 3, CategoryDescriptor().Values().Len())
}

func TestBookCategory_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MYSTERY", BookCategoryMystery.String())
	assert.Equal(t, "SCIENCE_FICTION", BookCategoryScienceFiction.String())
	assert.Equal(t, "SELF_HELP", BookCategorySelfHelp.String())
	assert.Equal(t, "17", BookCategory(17).String())
}

func TestRequest_WireRoundTrip(t *testing.T) {
	t.Parallel()

	in := &RecommendationRequest{UserID: 7, Category: BookCategory(42), MaxResults: 3}
	b, err := in.Marshal()
	require.NoError(t, err)

	out, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRequest_KnownEncoding(t *testing.T) {
	t.Parallel()

	// user_id=1, category=SELF_HELP, max_results=3 as produced by protoc-generated code.
	b := []byte{0x08, 0x01, 0x10, 0x02, 0x18, 0x03}

	req, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, &RecommendationRequest{UserID: 1, Category: BookCategorySelfHelp, MaxResults: 3}, req)
}

func TestResponse_WireRoundTrip(t *testing.T) {
	t.Parallel()

	in := &RecommendationResponse{Recommendations: []BookRecommendation{
		{ID: 1, Title: "The Maltese Falcon"},
		{ID: 3, Title: "The Hound of the Baskervilles"},
	}}
	b, err := in.Marshal()
	require.NoError(t, err)

	out, err := UnmarshalResponse(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestResponse_MarshalJSON(t *testing.T) {
	t.Parallel()

	resp := &RecommendationResponse{Recommendations: []BookRecommendation{{ID: 5, Title: "Ender's Game"}}}
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recommendations":[{"id":5,"title":"Ender's Game"}]}`, string(b))
}

func TestFromMessage_WrongType(t *testing.T) {
	t.Parallel()

	_, err := RequestFromMessage(NewResponseMessage())
	assert.Error(t, err)

	_, err = ResponseFromMessage(NewRequestMessage())
	assert.Error(t, err)
}

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	stub := &stubServer{resp: &RecommendationResponse{Recommendations: []BookRecommendation{{ID: 8, Title: "How to Win"}}}}
	client := dialStub(t, stub)

	resp, err := client.Recommend(context.Background(), &RecommendationRequest{
		UserID:     4,
		Category:   BookCategorySelfHelp,
		MaxResults: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, stub.resp, resp)
	assert.Equal(t, &RecommendationRequest{UserID: 4, Category: BookCategorySelfHelp, MaxResults: 1}, stub.got)
}

func TestService_NilResponse(t *testing.T) {
	t.Parallel()

	client := dialStub(t, &stubServer{})

	resp, err := client.Recommend(context.Background(), &RecommendationRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
}

func TestService_ErrorPropagates(t *testing.T) {
	t.Parallel()

	client := dialStub(t, &stubServer{err: status.Error(codes.NotFound, "category not found")})

	_, err := client.Recommend(context.Background(), &RecommendationRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestService_InterceptorSeesGoTypes(t *testing.T) {
	t.Parallel()

	var seen interface{}
	var method string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = req
		method = info.FullMethod
		return handler(ctx, req)
	}

	client := dialStub(t, &stubServer{}, grpc.UnaryInterceptor(interceptor))

	_, err := client.Recommend(context.Background(), &RecommendationRequest{Category: BookCategoryMystery, MaxResults: 2})
	require.NoError(t, err)
	assert.IsType(t, &RecommendationRequest{}, seen)
	assert.Equal(t, RecommendFullMethodName, method)
}
