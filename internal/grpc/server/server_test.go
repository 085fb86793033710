package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	v1 "github.com/vyrodovalexey/recommendations/api/recommendations/v1"
	"github.com/vyrodovalexey/recommendations/internal/config"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// blockingServer answers Recommend once release is closed or the call is cancelled.
type blockingServer struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingServer() *blockingServer {
	return &blockingServer{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingServer) Recommend(ctx context.Context, _ *v1.RecommendationRequest) (*v1.RecommendationResponse, error) {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return &v1.RecommendationResponse{Recommendations: []v1.BookRecommendation{{ID: 1, Title: "done"}}}, nil
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
}

type echoServer struct{}

func (echoServer) Recommend(_ context.Context, req *v1.RecommendationRequest) (*v1.RecommendationResponse, error) {
	return &v1.RecommendationResponse{Recommendations: []v1.BookRecommendation{{ID: req.UserID, Title: req.Category.String()}}}, nil
}

func startBufconn(t *testing.T, impl v1.RecommendationsServer, opts ...Option) (*Server, *bufconn.Listener) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	opts = append([]Option{WithListener(lis), WithInsecure(true), WithLogger(observability.NopLogger())}, opts...)
	s := New(nil, opts...)
	v1.RegisterRecommendationsServer(s, impl)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	return s, lis
}

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNew_NilConfig(t *testing.T) {
	t.Parallel()

	s := New(nil)

	assert.Equal(t, StateUnstarted, s.State())
	assert.Equal(t, config.DefaultAddress, s.Address())
	assert.Equal(t, DefaultWorkers, s.Workers())
	assert.Equal(t, DefaultMaxMsgSize, s.maxRecvMsgSize)
	assert.Equal(t, DefaultMaxMsgSize, s.maxSendMsgSize)
	assert.Equal(t, DefaultGracefulStopTimeout, s.gracefulStopTimeout)
	assert.False(t, s.insecure)
	assert.Nil(t, s.Addr())
}

func TestNew_FromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig().Server
	cfg.Address = "127.0.0.1:7777"
	cfg.Workers = 3
	cfg.GracefulStopTimeout = config.Duration(5 * time.Second)
	cfg.Keepalive = &config.KeepaliveConfig{
		Time:                config.Duration(30 * time.Second),
		PermitWithoutStream: true,
	}
	cfg.TLS = &config.TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "TLS13"}

	s := New(&cfg)

	assert.Equal(t, "127.0.0.1:7777", s.Address())
	assert.Equal(t, 3, s.Workers())
	assert.Equal(t, 5*time.Second, s.gracefulStopTimeout)
	require.NotNil(t, s.keepaliveParams)
	assert.Equal(t, 30*time.Second, s.keepaliveParams.Time)
	require.NotNil(t, s.keepaliveEnforcement)
	assert.True(t, s.keepaliveEnforcement.PermitWithoutStream)
	assert.Equal(t, "c.pem", s.certFile)
	assert.Equal(t, "k.pem", s.keyFile)
	assert.True(t, s.reflectionEnabled)
	assert.True(t, s.healthServiceEnabled)
}

func TestNew_WithOptions(t *testing.T) {
	t.Parallel()

	interceptor := func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(ctx, req)
	}

	s := New(nil,
		WithAddress(":50052"),
		WithWorkers(4),
		WithWorkers(0),
		WithMaxRecvMsgSize(1024),
		WithMaxSendMsgSize(2048),
		WithKeepaliveParams(keepalive.ServerParameters{Time: time.Minute}),
		WithKeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{MinTime: time.Second}),
		WithUnaryInterceptors(interceptor),
		WithReflection(true),
		WithHealthService(false),
		WithGracefulStopTimeout(time.Second),
		WithInsecure(true),
	)

	assert.Equal(t, ":50052", s.Address())
	assert.Equal(t, 4, s.Workers())
	assert.Equal(t, 1024, s.maxRecvMsgSize)
	assert.Equal(t, 2048, s.maxSendMsgSize)
	assert.Len(t, s.unaryInterceptors, 1)
	assert.True(t, s.reflectionEnabled)
	assert.False(t, s.healthServiceEnabled)
	assert.Equal(t, time.Second, s.gracefulStopTimeout)
	assert.True(t, s.insecure)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateUnstarted, "unstarted"},
		{StateServing, "serving"},
		{StateDraining, "draining"},
		{StateStopped, "stopped"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestServer_Start_TCP(t *testing.T) {
	t.Parallel()

	s := New(nil, WithAddress("127.0.0.1:0"), WithInsecure(true))
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, StateServing, s.State())
	assert.True(t, s.IsServing())
	require.NotNil(t, s.Addr())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr().String())
	assert.Greater(t, s.Uptime(), time.Duration(0))

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, s.State())
	s.Wait()
}

func TestServer_Start_Twice(t *testing.T) {
	t.Parallel()

	s, _ := startBufconn(t, echoServer{})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serving")
}

func TestServer_Start_InvalidAddress(t *testing.T) {
	t.Parallel()

	s := New(nil, WithAddress("invalid-address-without-port"), WithInsecure(true))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Equal(t, StateUnstarted, s.State())
}

func TestServer_Start_RequiresCredentialsOrInsecure(t *testing.T) {
	t.Parallel()

	s := New(nil, WithListener(bufconn.Listen(1024)))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, StateUnstarted, s.State())
}

func TestServer_RegisterService_AfterStartIgnored(t *testing.T) {
	t.Parallel()

	s, _ := startBufconn(t, echoServer{})

	assert.NotPanics(t, func() {
		s.RegisterService(&v1.RecommendationsServiceDesc, echoServer{})
	})
	assert.Contains(t, s.GetServiceInfo(), v1.ServiceName)
}

func TestServer_ServesRegisteredService(t *testing.T) {
	t.Parallel()

	_, lis := startBufconn(t, echoServer{})
	client := v1.NewRecommendationsClient(dialBufconn(t, lis))

	resp, err := client.Recommend(context.Background(), &v1.RecommendationRequest{UserID: 9, Category: v1.BookCategorySelfHelp})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, int32(9), resp.Recommendations[0].ID)
	assert.Equal(t, "SELF_HELP", resp.Recommendations[0].Title)
}

func TestServer_HealthService(t *testing.T) {
	t.Parallel()

	s, lis := startBufconn(t, echoServer{})
	health := healthpb.NewHealthClient(dialBufconn(t, lis))

	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: v1.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_Reflection(t *testing.T) {
	t.Parallel()

	s, _ := startBufconn(t, echoServer{}, WithReflection(true))

	info := s.GetServiceInfo()
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
	assert.Contains(t, info, v1.ServiceName)
}

func TestServer_Shutdown_Unstarted(t *testing.T) {
	t.Parallel()

	s := New(nil)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, s.State())

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestServer_Shutdown_Idempotent(t *testing.T) {
	t.Parallel()

	s, _ := startBufconn(t, echoServer{})

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, s.State())
}

func TestServer_Shutdown_DrainsInFlight(t *testing.T) {
	t.Parallel()

	impl := newBlockingServer()
	s, lis := startBufconn(t, impl, WithGracefulStopTimeout(10*time.Second))
	client := v1.NewRecommendationsClient(dialBufconn(t, lis))

	type result struct {
		resp *v1.RecommendationResponse
		err  error
	}
	inflight := make(chan result, 1)
	go func() {
		resp, err := client.Recommend(context.Background(), &v1.RecommendationRequest{})
		inflight <- result{resp, err}
	}()
	<-impl.entered

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- s.Shutdown(context.Background()) }()

	require.Eventually(t, func() bool { return s.State() == StateDraining }, 5*time.Second, 5*time.Millisecond)

	// New calls are refused while draining.
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := v1.NewRecommendationsClient(dialBufconn(t, lis)).Recommend(ctx, &v1.RecommendationRequest{})
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)

	close(impl.release)

	r := <-inflight
	require.NoError(t, r.err)
	require.Len(t, r.resp.Recommendations, 1)
	assert.Equal(t, "done", r.resp.Recommendations[0].Title)

	require.NoError(t, <-shutdownDone)
	assert.Equal(t, StateStopped, s.State())
	s.Wait()
}

func TestServer_Shutdown_ForcedAfterTimeout(t *testing.T) {
	t.Parallel()

	impl := newBlockingServer()
	s, lis := startBufconn(t, impl, WithGracefulStopTimeout(50*time.Millisecond))
	client := v1.NewRecommendationsClient(dialBufconn(t, lis))

	inflight := make(chan error, 1)
	go func() {
		_, err := client.Recommend(context.Background(), &v1.RecommendationRequest{})
		inflight <- err
	}()
	<-impl.entered

	start := time.Now()
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StateStopped, s.State())

	err := <-inflight
	require.Error(t, err)
	assert.NotEqual(t, codes.OK, status.Code(err))
}

func TestServer_Shutdown_ContextDeadline(t *testing.T) {
	t.Parallel()

	impl := newBlockingServer()
	s, lis := startBufconn(t, impl)
	client := v1.NewRecommendationsClient(dialBufconn(t, lis))

	go func() { _, _ = client.Recommend(context.Background(), &v1.RecommendationRequest{}) }()
	<-impl.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, s.Shutdown(ctx))
	assert.Less(t, time.Since(start), DefaultGracefulStopTimeout)
	assert.Equal(t, StateStopped, s.State())
}

func TestServer_Interceptors(t *testing.T) {
	t.Parallel()

	var methods []string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}

	_, lis := startBufconn(t, echoServer{}, WithUnaryInterceptors(interceptor))
	client := v1.NewRecommendationsClient(dialBufconn(t, lis))

	_, err := client.Recommend(context.Background(), &v1.RecommendationRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v1.RecommendFullMethodName}, methods)
}

func TestParseTLSVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0x0304), parseTLSVersion("TLS13"))
	assert.Equal(t, uint16(0x0303), parseTLSVersion("TLS12"))
	assert.Equal(t, uint16(0x0303), parseTLSVersion(""))
}
