package sleepv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service names.
const (
	SleepLogServiceName = "sleeptracker.sleep.v1.SleepLogService"
	UserServiceName     = "sleeptracker.sleep.v1.UserService"
	AuditServiceName    = "sleeptracker.audit.v1.AuditService"
)

// Full method names, used by interceptors and clients.
const (
	SleepLogService_CreateSleepLog_FullMethodName      = "/" + SleepLogServiceName + "/CreateSleepLog"
	SleepLogService_UpdateSleepLog_FullMethodName      = "/" + SleepLogServiceName + "/UpdateSleepLog"
	SleepLogService_DeleteSleepLog_FullMethodName      = "/" + SleepLogServiceName + "/DeleteSleepLog"
	SleepLogService_GetSleepLog_FullMethodName         = "/" + SleepLogServiceName + "/GetSleepLog"
	SleepLogService_GetLastNight_FullMethodName        = "/" + SleepLogServiceName + "/GetLastNight"
	SleepLogService_GetThirtyDayAverage_FullMethodName = "/" + SleepLogServiceName + "/GetThirtyDayAverage"
	SleepLogService_ListSleepLogs_FullMethodName       = "/" + SleepLogServiceName + "/ListSleepLogs"

	UserService_CreateUser_FullMethodName = "/" + UserServiceName + "/CreateUser"
	UserService_GetUser_FullMethodName    = "/" + UserServiceName + "/GetUser"
	UserService_UpdateUser_FullMethodName = "/" + UserServiceName + "/UpdateUser"
	UserService_DeleteUser_FullMethodName = "/" + UserServiceName + "/DeleteUser"

	AuditService_ListAuditLogs_FullMethodName = "/" + AuditServiceName + "/ListAuditLogs"
)

// SleepLogServiceServer is the server API for SleepLogService.
type SleepLogServiceServer interface {
	CreateSleepLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateSleepLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSleepLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSleepLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLastNight(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetThirtyDayAverage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSleepLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UserServiceServer is the server API for UserService.
type UserServiceServer interface {
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// AuditServiceServer is the server API for AuditService.
type AuditServiceServer interface {
	ListAuditLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts m to grpc.MethodDesc.Handler, running the server interceptor chain when present.
func unaryHandler(fullMethod string, m unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return m(srv, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func methodName(fullMethod string) string {
	for i := len(fullMethod) - 1; i >= 0; i-- {
		if fullMethod[i] == '/' {
			return fullMethod[i+1:]
		}
	}
	return fullMethod
}

func method(fullMethod string, m unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{MethodName: methodName(fullMethod), Handler: unaryHandler(fullMethod, m)}
}

// SleepLogService_ServiceDesc is the grpc.ServiceDesc for SleepLogService.
var SleepLogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SleepLogServiceName,
	HandlerType: (*SleepLogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(SleepLogService_CreateSleepLog_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).CreateSleepLog(ctx, in)
		}),
		method(SleepLogService_UpdateSleepLog_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).UpdateSleepLog(ctx, in)
		}),
		method(SleepLogService_DeleteSleepLog_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).DeleteSleepLog(ctx, in)
		}),
		method(SleepLogService_GetSleepLog_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).GetSleepLog(ctx, in)
		}),
		method(SleepLogService_GetLastNight_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).GetLastNight(ctx, in)
		}),
		method(SleepLogService_GetThirtyDayAverage_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).GetThirtyDayAverage(ctx, in)
		}),
		method(SleepLogService_ListSleepLogs_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(SleepLogServiceServer).ListSleepLogs(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sleeptracker/sleep/v1/sleep.proto",
}

// UserService_ServiceDesc is the grpc.ServiceDesc for UserService.
var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(UserService_CreateUser_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(UserServiceServer).CreateUser(ctx, in)
		}),
		method(UserService_GetUser_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(UserServiceServer).GetUser(ctx, in)
		}),
		method(UserService_UpdateUser_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(UserServiceServer).UpdateUser(ctx, in)
		}),
		method(UserService_DeleteUser_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(UserServiceServer).DeleteUser(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sleeptracker/sleep/v1/user.proto",
}

// AuditService_ServiceDesc is the grpc.ServiceDesc for AuditService.
var AuditService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuditServiceName,
	HandlerType: (*AuditServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(AuditService_ListAuditLogs_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuditServiceServer).ListAuditLogs(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sleeptracker/audit/v1/audit.proto",
}

// RegisterSleepLogServiceServer registers srv on s.
func RegisterSleepLogServiceServer(s grpc.ServiceRegistrar, srv SleepLogServiceServer) {
	s.RegisterService(&SleepLogService_ServiceDesc, srv)
}

// RegisterUserServiceServer registers srv on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

// RegisterAuditServiceServer registers srv on s.
func RegisterAuditServiceServer(s grpc.ServiceRegistrar, srv AuditServiceServer) {
	s.RegisterService(&AuditService_ServiceDesc, srv)
}

// Client invokes any of the services above by full method name.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call encodes req, invokes fullMethod, and decodes the response into resp (which may be nil).
func (c *Client) Call(ctx context.Context, fullMethod string, req, resp any, opts ...grpc.CallOption) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return Decode(out, resp)
}
