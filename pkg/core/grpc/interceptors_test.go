package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/lexana.v1.Analyzer/Analyze"}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"syntax error", mdwerror.New("expected F").WithCode(mdwerror.CodeSyntax), codes.InvalidArgument},
		{"wrapped too long", fmt.Errorf("request: %w", mdwerror.New("long").WithCode(mdwerror.CodeInputTooLong)), codes.ResourceExhausted},
		{"not found", mdwerror.New("missing").WithCode(mdwerror.CodeNotFound), codes.NotFound},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"plain", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(ToStatus(tt.err)); got != tt.want {
				t.Errorf("ToStatus() code = %v, want %v", got, tt.want)
			}
		})
	}

	if ToStatus(nil) != nil {
		t.Error("ToStatus(nil) should be nil")
	}
}

func TestErrorInterceptor_KeepsStatusErrors(t *testing.T) {
	interceptor := ErrorInterceptor()
	original := status.Error(codes.PermissionDenied, "no")

	_, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, original
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("code = %v, want PermissionDenied", status.Code(err))
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	_, err := RecoveryInterceptor()(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		wantSame string
	}{
		{
			name:     "taken from metadata",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42")),
			wantSame: "req-42",
		},
		{
			name: "generated when missing",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			_, err := RequestIDInterceptor()(tt.ctx, nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
				seen = GetRequestID(ctx)
				return nil, nil
			})
			if err != nil {
				t.Fatalf("interceptor error = %v", err)
			}
			if tt.wantSame != "" && seen != tt.wantSame {
				t.Errorf("request id = %q, want %q", seen, tt.wantSame)
			}
			if seen == "" {
				t.Error("request id should not be empty")
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if GetRequestID(ctx) != "abc" {
		t.Errorf("GetRequestID() = %q, want abc", GetRequestID(ctx))
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("GetRequestID() on empty context should be empty")
	}
}
