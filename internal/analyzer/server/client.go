package server

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/internal/analyzer/service"
	coreGrpc "github.com/msto63/lexana/pkg/core/grpc"
)

// Client connects to a remote analyzer
type Client struct {
	*AnalyzerClient
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial creates a client for the analyzer at target (host:port)
func Dial(target string) (*Client, error) {
	conn, err := coreGrpc.DialSimple(target)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to connect to analyzer").
			WithCode(mdwerror.CodeNetworkError).
			WithDetail("target", target)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{
		AnalyzerClient: NewAnalyzerClient(conn),
		conn:           conn,
		health:         healthpb.NewHealthClient(conn),
	}
}

// Serving reports whether the remote Analyzer service is serving
func (c *Client) Serving(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// RemoteAnalyzer runs analyses on a remote server and returns them in the
// same form as the local service
type RemoteAnalyzer struct {
	client *Client
}

// NewRemoteAnalyzer wraps client
func NewRemoteAnalyzer(client *Client) *RemoteAnalyzer {
	return &RemoteAnalyzer{client: client}
}

// Analyze sends input and rebuilds the result
func (r *RemoteAnalyzer) Analyze(ctx context.Context, input string) (*service.Result, error) {
	doc, err := r.client.Analyze(ctx, input)
	if err != nil {
		return nil, mdwerror.Wrap(err, "remote analysis failed").
			WithCode(mdwerror.CodeServiceUnavailable).
			WithOperation("server.RemoteAnalyzer")
	}
	return doc.Result()
}
