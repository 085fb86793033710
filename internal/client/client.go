// Package client provides a small gRPC client for the recommendations service.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	v1 "github.com/vyrodovalexey/recommendations/api/recommendations/v1"
	"github.com/vyrodovalexey/recommendations/internal/grpc/middleware"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// DefaultTimeout bounds a single call when the caller context has no deadline.
const DefaultTimeout = 10 * time.Second

// ErrInvalidCA is returned when CA material contains no usable certificate.
var ErrInvalidCA = errors.New("no valid CA certificates found")

// Client calls the recommendations service.
type Client struct {
	conn    *grpc.ClientConn
	rpc     v1.RecommendationsClient
	logger  observability.Logger
	timeout time.Duration

	caPEM      []byte
	caFile     string
	serverName string
	insecure   bool
	dialOpts   []grpc.DialOption
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCA trusts the PEM encoded CA certificates in pem.
func WithCA(pem []byte) Option {
	return func(c *Client) {
		c.caPEM = pem
		c.insecure = false
	}
}

// WithCAFile trusts the CA certificates stored at path.
func WithCAFile(path string) Option {
	return func(c *Client) {
		c.caFile = path
		c.insecure = false
	}
}

// WithServerName overrides the name verified against the server certificate.
func WithServerName(name string) Option {
	return func(c *Client) {
		c.serverName = name
	}
}

// WithInsecure dials without transport security.
func WithInsecure() Option {
	return func(c *Client) {
		c.insecure = true
	}
}

// WithDialOptions appends raw dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOpts = append(c.dialOpts, opts...)
	}
}

// New creates a client for target. The connection is established lazily on
// the first call.
func New(target string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:   observability.NopLogger(),
		timeout:  DefaultTimeout,
		insecure: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	creds, err := c.transportCredentials()
	if err != nil {
		return nil, err
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}

	c.conn = conn
	c.rpc = v1.NewRecommendationsClient(conn)

	c.logger.Debug("created recommendations client",
		observability.String("target", target),
		observability.Bool("insecure", c.insecure),
	)

	return c, nil
}

func (c *Client) transportCredentials() (credentials.TransportCredentials, error) {
	if c.insecure {
		return insecure.NewCredentials(), nil
	}

	pem := c.caPEM
	if len(pem) == 0 && c.caFile != "" {
		data, err := os.ReadFile(c.caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pem = data
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: c.serverName,
	}

	// Without explicit CA material the system pool is used.
	if len(pem) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, ErrInvalidCA
		}
		tlsConfig.RootCAs = pool
	}

	return credentials.NewTLS(tlsConfig), nil
}

// Recommend asks for up to maxResults books in category. Each call carries a
// fresh request ID in its metadata.
func (c *Client) Recommend(
	ctx context.Context,
	userID int32,
	category v1.BookCategory,
	maxResults int32,
) ([]v1.BookRecommendation, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.New().String()
	ctx = middleware.SetRequestIDInOutgoingContext(ctx, requestID)

	resp, err := c.rpc.Recommend(ctx, &v1.RecommendationRequest{
		UserID:     userID,
		Category:   category,
		MaxResults: maxResults,
	})
	if err != nil {
		c.logger.Debug("recommend call failed",
			observability.String("request_id", requestID),
			observability.Error(err),
		)
		return nil, err
	}

	return resp.Recommendations, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
