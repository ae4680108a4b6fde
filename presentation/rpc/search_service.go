package rpc

import (
	"context"

	"github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SearchServiceName          = "search.SearchService"
	searchSearchMessagesMethod = "/search.SearchService/SearchMessages"
	searchIndexMessageMethod   = "/search.SearchService/IndexMessage"
)

type SearchServiceServer interface {
	SearchMessages(ctx context.Context, req *SearchMessagesRequest) (*SearchMessagesResponse, error)
	IndexMessage(ctx context.Context, req *IndexMessageRequest) (*IndexMessageResponse, error)
}

type searchServer struct {
	usecase search.SearchUseCase
}

func NewSearchServer(usecase search.SearchUseCase) SearchServiceServer {
	return &searchServer{usecase: usecase}
}

func (s *searchServer) SearchMessages(ctx context.Context, req *SearchMessagesRequest) (*SearchMessagesResponse, error) {
	page, err := s.usecase.SearchMessages(ctx,
		req.Query,
		filter.MessageFilter{ChannelID: req.ChannelID, GuildID: req.GuildID, AuthorID: req.AuthorID},
		int64(req.Limit),
		int64(req.Offset),
	)
	if err != nil {
		return nil, toStatus(err)
	}

	results := make([]SearchResult, 0, len(page.Results))
	for _, r := range page.Results {
		results = append(results, SearchResult{
			MessageID: r.MessageID,
			Content:   r.Content,
			AuthorID:  r.AuthorID,
			ChannelID: r.ChannelID,
			GuildID:   r.GuildID,
			Score:     r.Score,
			CreatedAt: r.CreatedAt,
		})
	}
	return &SearchMessagesResponse{Results: results, TotalHits: page.TotalHits}, nil
}

func (s *searchServer) IndexMessage(ctx context.Context, req *IndexMessageRequest) (*IndexMessageResponse, error) {
	if req.MessageID == 0 {
		return nil, status.Error(codes.InvalidArgument, "message_id is required")
	}

	err := s.usecase.IndexMessage(ctx, model.IndexDocument{
		MessageID: req.MessageID,
		Content:   req.Content,
		AuthorID:  req.AuthorID,
		ChannelID: req.ChannelID,
		GuildID:   req.GuildID,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &IndexMessageResponse{Success: true}, nil
}

func RegisterSearchServiceServer(s grpc.ServiceRegistrar, srv SearchServiceServer) {
	s.RegisterService(&SearchServiceDesc, srv)
}

var SearchServiceDesc = grpc.ServiceDesc{
	ServiceName: SearchServiceName,
	HandlerType: (*SearchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SearchMessages", Handler: searchSearchMessagesHandler},
		{MethodName: "IndexMessage", Handler: searchIndexMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "search.proto",
}

func searchSearchMessagesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SearchServiceServer).SearchMessages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: searchSearchMessagesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SearchServiceServer).SearchMessages(ctx, req.(*SearchMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func searchIndexMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(IndexMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SearchServiceServer).IndexMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: searchIndexMessageMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SearchServiceServer).IndexMessage(ctx, req.(*IndexMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type SearchServiceClient interface {
	SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error)
	IndexMessage(ctx context.Context, in *IndexMessageRequest, opts ...grpc.CallOption) (*IndexMessageResponse, error)
}

type searchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSearchServiceClient(cc grpc.ClientConnInterface) SearchServiceClient {
	return &searchServiceClient{cc: cc}
}

func (c *searchServiceClient) SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error) {
	out := new(SearchMessagesResponse)
	if err := c.cc.Invoke(ctx, searchSearchMessagesMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *searchServiceClient) IndexMessage(ctx context.Context, in *IndexMessageRequest, opts ...grpc.CallOption) (*IndexMessageResponse, error) {
	out := new(IndexMessageResponse)
	if err := c.cc.Invoke(ctx, searchIndexMessageMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
