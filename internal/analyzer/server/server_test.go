package server

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/msto63/lexana/pkg/core/health"
	"github.com/msto63/lexana/pkg/core/logging"
)

func startBufconn(t *testing.T) *Client {
	t.Helper()

	svc, err := service.NewService(service.Config{
		Store:  store.NewMemoryStore(),
		Logger: logging.Wrap("test", mdwlog.NewNop()),
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.EnableReflection = false
	srv, err := New(cfg, svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	listener := bufconn.Listen(1 << 20)
	go srv.ServeGRPC(listener)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client := NewClient(conn)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestServer_Analyze(t *testing.T) {
	client := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc, err := client.Analyze(ctx, "(a + b) * a")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !doc.Accepted || doc.RunID == "" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Tokens) != 7 {
		t.Errorf("len(Tokens) = %d, want 7", len(doc.Tokens))
	}
	if len(doc.Symbols) != 2 || doc.Symbols[0].Lexeme != "a" || doc.Symbols[0].ID != 7 {
		t.Errorf("Symbols = %+v", doc.Symbols)
	}

	res, err := doc.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Tree == nil || res.Tree.Name() != "E" {
		t.Errorf("Tree = %v", res.Tree)
	}
}

func TestServer_AnalyzeRejected(t *testing.T) {
	client := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc, err := client.Analyze(ctx, "3 + 4 *")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if doc.Accepted || doc.Error == nil {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Error.Code != "SYNTAX" || doc.Error.Reason != "invalid token in F: found none" {
		t.Errorf("Error = %+v", doc.Error)
	}
}

func TestServer_Batch(t *testing.T) {
	client := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Batch(ctx, []string{"a", "a &", "b * c"})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if result.Accepted != 2 || result.Rejected != 1 || len(result.Results) != 3 {
		t.Errorf("Batch() = %+v", result)
	}
}

func TestServer_InvalidRequests(t *testing.T) {
	client := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name   string
		method string
		req    map[string]interface{}
	}{
		{"analyze without input", analyzeMethod, map[string]interface{}{}},
		{"analyze with number", analyzeMethod, map[string]interface{}{"input": 3}},
		{"batch without inputs", batchMethod, map[string]interface{}{}},
		{"batch with number", batchMethod, map[string]interface{}{"inputs": []interface{}{"a", 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := structpb.NewStruct(tt.req)
			if err != nil {
				t.Fatalf("NewStruct() error = %v", err)
			}
			err = client.conn.Invoke(ctx, tt.method, req, new(structpb.Struct))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument", status.Code(err))
			}
		})
	}
}

func TestServer_Health(t *testing.T) {
	client := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serving, err := client.Serving(ctx)
	if err != nil {
		t.Fatalf("Serving() error = %v", err)
	}
	if !serving {
		t.Error("Serving() = false")
	}
}

func TestRemoteAnalyzer(t *testing.T) {
	client := startBufconn(t)
	remote := NewRemoteAnalyzer(client)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := remote.Analyze(ctx, "x + y * z")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !res.Accepted || res.Symbols.Len() != 3 {
		t.Errorf("res = %+v", res)
	}
	if got := res.Tree.Stats().Leaves; got != 8 {
		t.Errorf("leaves = %d, want 8", got)
	}
}

func TestServer_HealthRegistry(t *testing.T) {
	svc, err := service.NewService(service.Config{
		Store:     store.NewMemoryStore(),
		CacheSize: 4,
		Logger:    logging.Wrap("test", mdwlog.NewNop()),
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	cfg := DefaultConfig()
	cfg.History = store.NewMemoryStore()
	srv, err := New(cfg, svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report := srv.HealthRegistry().Check(context.Background())
	if report.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want healthy", report.Status)
	}
	var names []string
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	if got := strings.Join(names, ","); got != "analyzer,cache,history" {
		t.Errorf("checks = %s, want analyzer,cache,history", got)
	}

	cfg.History.Close()
	report = srv.HealthRegistry().Check(context.Background())
	if report.Status != health.StatusDegraded {
		t.Errorf("Status after history close = %v, want degraded", report.Status)
	}
}
