package rpc

import (
	"context"
	"strings"

	"github.com/nemaks/recordstore/application/usecases/audit"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	AuditServiceName          = "audit.AuditService"
	auditLogEventMethod       = "/audit.AuditService/LogEvent"
	auditBatchLogEventsMethod = "/audit.AuditService/BatchLogEvents"
	auditGetLogsMethod        = "/audit.AuditService/GetLogs"
)

type AuditServiceServer interface {
	LogEvent(ctx context.Context, req *LogEventRequest) (*LogEventResponse, error)
	BatchLogEvents(ctx context.Context, req *BatchLogEventsRequest) (*BatchLogEventsResponse, error)
	GetLogs(ctx context.Context, req *GetLogsRequest) (*GetLogsResponse, error)
}

type auditServer struct {
	usecase audit.AuditUseCase
}

func NewAuditServer(usecase audit.AuditUseCase) AuditServiceServer {
	return &auditServer{usecase: usecase}
}

func (s *auditServer) LogEvent(ctx context.Context, req *LogEventRequest) (*LogEventResponse, error) {
	if strings.TrimSpace(req.Action) == "" {
		return nil, status.Error(codes.InvalidArgument, "action is required")
	}

	entry, err := s.usecase.LogEvent(ctx, req.toEvent())
	if err != nil {
		return nil, toStatus(err)
	}
	return &LogEventResponse{Success: true, ID: entry.ID}, nil
}

func (s *auditServer) BatchLogEvents(ctx context.Context, req *BatchLogEventsRequest) (*BatchLogEventsResponse, error) {
	events := make([]model.AuditEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, e.toEvent())
	}

	count, err := s.usecase.BatchLogEvents(ctx, events)
	if err != nil {
		return nil, toStatus(err)
	}
	return &BatchLogEventsResponse{Count: uint32(count)}, nil
}

func (s *auditServer) GetLogs(ctx context.Context, req *GetLogsRequest) (*GetLogsResponse, error) {
	page, err := s.usecase.GetLogs(ctx,
		filter.AuditLogFilter{UserID: req.UserID, Action: req.Action},
		int64(req.Page),
		int64(req.Limit),
	)
	if err != nil {
		return nil, toStatus(err)
	}

	logs := make([]AuditLogEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		logs = append(logs, AuditLogEntry{
			ID:         e.ID,
			UserID:     uint64(e.UserID),
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Scope:      e.Scope,
			Details:    e.Details,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			CreatedAt:  e.FormattedCreatedAt(),
		})
	}
	return &GetLogsResponse{Logs: logs, Total: page.Total}, nil
}

func (r LogEventRequest) toEvent() model.AuditEvent {
	return model.AuditEvent{
		UserID:     r.UserID,
		Action:     r.Action,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		Scope:      r.Scope,
		Details:    r.Details,
		IPAddress:  r.IPAddress,
		UserAgent:  r.UserAgent,
	}
}

func RegisterAuditServiceServer(s grpc.ServiceRegistrar, srv AuditServiceServer) {
	s.RegisterService(&AuditServiceDesc, srv)
}

var AuditServiceDesc = grpc.ServiceDesc{
	ServiceName: AuditServiceName,
	HandlerType: (*AuditServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LogEvent", Handler: auditLogEventHandler},
		{MethodName: "BatchLogEvents", Handler: auditBatchLogEventsHandler},
		{MethodName: "GetLogs", Handler: auditGetLogsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "audit.proto",
}

func auditLogEventHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LogEventRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuditServiceServer).LogEvent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: auditLogEventMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuditServiceServer).LogEvent(ctx, req.(*LogEventRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func auditBatchLogEventsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BatchLogEventsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuditServiceServer).BatchLogEvents(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: auditBatchLogEventsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuditServiceServer).BatchLogEvents(ctx, req.(*BatchLogEventsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func auditGetLogsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetLogsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuditServiceServer).GetLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: auditGetLogsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuditServiceServer).GetLogs(ctx, req.(*GetLogsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AuditServiceClient calls a remote audit service with the JSON codec.
type AuditServiceClient interface {
	LogEvent(ctx context.Context, in *LogEventRequest, opts ...grpc.CallOption) (*LogEventResponse, error)
	BatchLogEvents(ctx context.Context, in *BatchLogEventsRequest, opts ...grpc.CallOption) (*BatchLogEventsResponse, error)
	GetLogs(ctx context.Context, in *GetLogsRequest, opts ...grpc.CallOption) (*GetLogsResponse, error)
}

type auditServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuditServiceClient(cc grpc.ClientConnInterface) AuditServiceClient {
	return &auditServiceClient{cc: cc}
}

func (c *auditServiceClient) LogEvent(ctx context.Context, in *LogEventRequest, opts ...grpc.CallOption) (*LogEventResponse, error) {
	out := new(LogEventResponse)
	if err := c.cc.Invoke(ctx, auditLogEventMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *auditServiceClient) BatchLogEvents(ctx context.Context, in *BatchLogEventsRequest, opts ...grpc.CallOption) (*BatchLogEventsResponse, error) {
	out := new(BatchLogEventsResponse)
	if err := c.cc.Invoke(ctx, auditBatchLogEventsMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *auditServiceClient) GetLogs(ctx context.Context, in *GetLogsRequest, opts ...grpc.CallOption) (*GetLogsResponse, error) {
	out := new(GetLogsResponse)
	if err := c.cc.Invoke(ctx, auditGetLogsMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
