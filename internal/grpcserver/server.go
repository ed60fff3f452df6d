package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"trailerhub/internal/compose"
	"trailerhub/internal/logging"
	"trailerhub/pkg/models"
)

type TitleLookup interface {
	Title(ctx context.Context, id string) (*models.Movie, error)
}

type Server struct {
	Composer *compose.Composer
	Titles   TitleLookup
}

var _ CatalogServer = (*Server)(nil)

func NewServer(c *compose.Composer, titles TitleLookup) *Server {
	return &Server{Composer: c, Titles: titles}
}

func (s *Server) GetCategory(ctx context.Context, req *GetCategoryRequest) (*GetCategoryResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	cat, err := s.Composer.Category(ctx, id)
	if errors.Is(err, compose.ErrUnknownCategory) {
		return nil, status.Error(codes.NotFound, "category not found")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "compose failed")
	}
	return &GetCategoryResponse{Category: cat}, nil
}

// Search never fails; a blank query yields no results.
func (s *Server) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	return &SearchResponse{Results: s.Composer.Search(ctx, req.Query)}, nil
}

func (s *Server) ResolveTitle(ctx context.Context, req *ResolveTitleRequest) (*ResolveTitleResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	m, err := s.Titles.Title(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Unavailable, "lookup failed")
	}
	if m == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &ResolveTitleResponse{Movie: *m}, nil
}

// New builds a grpc.Server with the catalog and health services registered.
func New(srv CatalogServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary)}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterCatalogServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	ev := logging.Debug()
	if err != nil {
		ev = logging.Warn().Err(err)
	}
	ev.Str("component", "grpc").
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("latency", time.Since(start)).
		Msg("rpc")
	return resp, err
}
