package grpcserver

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"trailerhub/internal/catalog"
	"trailerhub/internal/compose"
	"trailerhub/pkg/models"
)

type backend struct{ recs []models.MovieRecord }

func (b backend) ListMovies(_ context.Context, q models.MovieQuery) ([]models.MovieRecord, error) {
	var out []models.MovieRecord
	for _, r := range b.recs {
		if q.Category == "" || r.Category == q.Category {
			out = append(out, r)
		}
	}
	return out, nil
}

type titles map[string]models.Movie

func (t titles) Title(_ context.Context, id string) (*models.Movie, error) {
	m, ok := t[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	cat := catalog.New([]models.Category{{
		ID:   "hollywood",
		Name: "Hollywood",
		Movies: []models.Movie{
			{ID: "h-4", Title: "The Batman", Year: 2022, TrailerURL: "https://yt/static"},
		},
	}}, models.Category{ID: "tv-series", Name: "TV Series"})
	comp := compose.New(cat, backend{recs: []models.MovieRecord{
		{ID: "db-42", Title: "The Batman", Year: 2022, PosterURL: "https://cdn/x.jpg", Category: "hollywood"},
	}}, nil)

	gs, _ := New(NewServer(comp, titles{"h-4": {ID: "h-4", Title: "The Batman", Year: 2022}}))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCatalogService(t *testing.T) {
	conn := dial(t)
	client := NewCatalogClient(conn)
	ctx := context.Background()

	cat, err := client.GetCategory(ctx, &GetCategoryRequest{ID: "hollywood"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Category.Movies) != 1 {
		t.Fatalf("movies = %+v", cat.Category.Movies)
	}
	m := cat.Category.Movies[0]
	if m.ID != "h-4" || m.Poster != "https://cdn/x.jpg" || m.TrailerURL != "https://yt/static" {
		t.Fatalf("merged movie = %+v", m)
	}

	_, err = client.GetCategory(ctx, &GetCategoryRequest{ID: "nope"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown category err = %v", err)
	}

	res, err := client.Search(ctx, &SearchRequest{Query: "batman"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.Results[0].Category != "Hollywood" {
		t.Fatalf("search = %+v", res.Results)
	}
	empty, err := client.Search(ctx, &SearchRequest{Query: "  "})
	if err != nil || len(empty.Results) != 0 {
		t.Fatalf("blank search = %+v, %v", empty, err)
	}

	title, err := client.ResolveTitle(ctx, &ResolveTitleRequest{ID: "h-4"})
	if err != nil || title.Movie.Title != "The Batman" {
		t.Fatalf("resolve = %+v, %v", title, err)
	}
	if _, err := client.ResolveTitle(ctx, &ResolveTitleRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("blank resolve err = %v", err)
	}
}

func TestHealth(t *testing.T) {
	conn := dial(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
