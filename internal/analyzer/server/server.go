package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/internal/analyzer/handler"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/internal/analyzer/store"
	coreGrpc "github.com/msto63/lexana/pkg/core/grpc"
	"github.com/msto63/lexana/pkg/core/health"
	"github.com/msto63/lexana/pkg/core/logging"
	"github.com/msto63/lexana/pkg/core/version"
)

// MaxBatchInputs limits the inputs of one Batch call
const MaxBatchInputs = 1000

// Server serves the analyzer over gRPC and HTTP
type Server struct {
	service   *service.Service
	grpc      *coreGrpc.Server
	http      *http.Server
	health    *health.Registry
	logger    *logging.Logger
	config    Config
	startTime time.Time
}

// Config holds server configuration
type Config struct {
	Host             string
	GRPCPort         int
	HTTPPort         int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	EnableReflection bool

	// History is checked by the health registry when set
	History store.HistoryStore
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		GRPCPort:         9480,
		HTTPPort:         8480,
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     30 * time.Second,
		EnableReflection: true,
	}
}

// New creates a new analyzer server around svc
func New(cfg Config, svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, mdwerror.New("service is required").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("server.New")
	}
	logger := logging.New("analyzer-server")

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.GRPCPort
	grpcCfg.EnableReflection = cfg.EnableReflection
	grpcServer := coreGrpc.NewServer(grpcCfg)

	healthRegistry := health.NewRegistry("lexana", version.Analyzer)
	healthRegistry.RegisterFunc("analyzer", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Name:    "analyzer",
			Status:  health.StatusHealthy,
			Message: "Analyzer is operational",
		}
	})
	if cfg.History != nil {
		healthRegistry.Register(health.PingCheck("history", cfg.History, false))
	}
	if _, ok := svc.CacheStats(); ok {
		healthRegistry.RegisterFunc("cache", func(ctx context.Context) health.CheckResult {
			stats, _ := svc.CacheStats()
			return health.CheckResult{
				Name:    "cache",
				Status:  health.StatusHealthy,
				Message: fmt.Sprintf("%d entries, %.1f%% hit rate", stats.Size, stats.HitRate),
				Details: map[string]interface{}{
					"size":      stats.Size,
					"hits":      stats.Hits,
					"misses":    stats.Misses,
					"evictions": stats.Evictions,
				},
			}
		})
	}

	server := &Server{
		service:   svc,
		grpc:      grpcServer,
		health:    healthRegistry,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}

	RegisterAnalyzerServer(grpcServer.GRPCServer(), server)
	grpcServer.SetServingStatus(ServiceName, true)

	api := handler.NewHandler(version.Analyzer, svc, healthRegistry)
	server.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		Handler:      handler.NewRouter(api, handler.NewWebSocketHandler(svc)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, nil
}

// Ensure Server implements AnalyzerServer
var _ AnalyzerServer = (*Server)(nil)

// Analyze implements AnalyzerServer.Analyze. A rejected input is a
// successful call whose document has accepted=false.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	field, ok := req.GetFields()["input"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "input is required")
	}
	input, ok := field.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "input must be a string")
	}

	res, err := s.service.Analyze(ctx, input.StringValue)
	if err != nil {
		return nil, err
	}
	return toStruct(res.Document())
}

// Batch implements AnalyzerServer.Batch
func (s *Server) Batch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list := req.GetFields()["inputs"].GetListValue()
	if list == nil || len(list.GetValues()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "inputs is required")
	}
	if len(list.GetValues()) > MaxBatchInputs {
		return nil, status.Errorf(codes.ResourceExhausted, "at most %d inputs per call", MaxBatchInputs)
	}

	result := BatchResult{Results: make([]*service.Document, 0, len(list.GetValues()))}
	for i, v := range list.GetValues() {
		input, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "inputs[%d] must be a string", i)
		}
		res, err := s.service.Analyze(ctx, input.StringValue)
		if err != nil {
			return nil, err
		}
		if res.Accepted {
			result.Accepted++
		} else {
			result.Rejected++
		}
		result.Results = append(result.Results, res.Document())
	}
	return toStruct(result)
}

// Start starts gRPC in the background and serves HTTP until Stop
func (s *Server) Start() error {
	s.logger.Info("Starting analyzer server",
		"host", s.config.Host,
		"grpc_port", s.config.GRPCPort,
		"http_port", s.config.HTTPPort)

	if err := s.grpc.StartAsync(); err != nil {
		return mdwerror.Wrap(err, "failed to start gRPC").
			WithCode(mdwerror.CodeNetworkError).
			WithOperation("server.Start")
	}

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.grpc.Stop()
		return mdwerror.Wrap(err, "HTTP server failed").
			WithCode(mdwerror.CodeNetworkError).
			WithOperation("server.Start")
	}
	return nil
}

// StartAsync starts both listeners in the background
func (s *Server) StartAsync() error {
	s.logger.Info("Starting analyzer server (async)",
		"host", s.config.Host,
		"grpc_port", s.config.GRPCPort,
		"http_port", s.config.HTTPPort)

	if err := s.grpc.StartAsync(); err != nil {
		return mdwerror.Wrap(err, "failed to start gRPC").
			WithCode(mdwerror.CodeNetworkError).
			WithOperation("server.StartAsync")
	}

	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		s.grpc.Stop()
		return mdwerror.Wrap(err, "failed to start HTTP").
			WithCode(mdwerror.CodeNetworkError).
			WithOperation("server.StartAsync")
	}

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// ServeGRPC serves gRPC on an existing listener
func (s *Server) ServeGRPC(listener net.Listener) error {
	return s.grpc.Serve(listener)
}

// Stop stops both listeners, forcing them down when ctx expires
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Stopping analyzer server", "uptime", time.Since(s.startTime).Round(time.Second).String())
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	s.grpc.StopWithTimeout(ctx)
}

// HTTPHandler returns the HTTP routes
func (s *Server) HTTPHandler() http.Handler {
	return s.http.Handler
}

// GRPCServer returns the underlying gRPC server
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpc.GRPCServer()
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
