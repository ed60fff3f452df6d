package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"trailerhub/internal/compose"
	"trailerhub/pkg/models"
)

const ServiceName = "trailerhub.catalog.v1.Catalog"

type GetCategoryRequest struct {
	ID string `json:"id"`
}

type GetCategoryResponse struct {
	Category models.Category `json:"category"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Results []compose.SearchResult `json:"results"`
}

type ResolveTitleRequest struct {
	ID string `json:"id"`
}

type ResolveTitleResponse struct {
	Movie models.Movie `json:"movie"`
}

// CatalogServer is the server side of the catalog service.
type CatalogServer interface {
	GetCategory(context.Context, *GetCategoryRequest) (*GetCategoryResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	ResolveTitle(context.Context, *ResolveTitleRequest) (*ResolveTitleResponse, error)
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCategory", Handler: getCategoryHandler},
		{MethodName: "Search", Handler: searchHandler},
		{MethodName: "ResolveTitle", Handler: resolveTitleHandler},
	},
	Metadata: "trailerhub/catalog.json",
}

func getCategoryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetCategoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetCategory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetCategory"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetCategory(ctx, req.(*GetCategoryRequest))
	})
}

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Search"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).Search(ctx, req.(*SearchRequest))
	})
}

func resolveTitleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolveTitleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ResolveTitle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ResolveTitle"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ResolveTitle(ctx, req.(*ResolveTitleRequest))
	})
}

// CatalogClient calls the catalog service using the JSON codec.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *CatalogClient) GetCategory(ctx context.Context, in *GetCategoryRequest, opts ...grpc.CallOption) (*GetCategoryResponse, error) {
	out := new(GetCategoryResponse)
	if err := c.invoke(ctx, "GetCategory", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	if err := c.invoke(ctx, "Search", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ResolveTitle(ctx context.Context, in *ResolveTitleRequest, opts ...grpc.CallOption) (*ResolveTitleResponse, error) {
	out := new(ResolveTitleResponse)
	if err := c.invoke(ctx, "ResolveTitle", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
