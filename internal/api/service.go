package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "remindsync.v1.Reminders"

// Full method names, as seen by interceptors.
const (
	MethodRegister     = "/" + ServiceName + "/Register"
	MethodGetSalt      = "/" + ServiceName + "/GetSalt"
	MethodLogin        = "/" + ServiceName + "/Login"
	MethodRefreshToken = "/" + ServiceName + "/RefreshToken"
	MethodList         = "/" + ServiceName + "/List"
	MethodAdd          = "/" + ServiceName + "/Add"
	MethodChange       = "/" + ServiceName + "/Change"
	MethodDelete       = "/" + ServiceName + "/Delete"
	MethodReset        = "/" + ServiceName + "/Reset"
)

// RemindersServer is implemented by the server side of the service.
type RemindersServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Add(context.Context, *ReminderRequest) (*MutationResponse, error)
	Change(context.Context, *ReminderRequest) (*MutationResponse, error)
	Delete(context.Context, *DeleteRequest) (*MutationResponse, error)
	Reset(context.Context, *ResetRequest) (*ResetResponse, error)
}

// UnimplementedRemindersServer answers every method with codes.Unimplemented.
// Embed it to satisfy RemindersServer partially.
type UnimplementedRemindersServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedRemindersServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedRemindersServer) GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error) {
	return nil, unimplemented("GetSalt")
}
func (UnimplementedRemindersServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedRemindersServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedRemindersServer) List(context.Context, *ListRequest) (*ListResponse, error) {
	return nil, unimplemented("List")
}
func (UnimplementedRemindersServer) Add(context.Context, *ReminderRequest) (*MutationResponse, error) {
	return nil, unimplemented("Add")
}
func (UnimplementedRemindersServer) Change(context.Context, *ReminderRequest) (*MutationResponse, error) {
	return nil, unimplemented("Change")
}
func (UnimplementedRemindersServer) Delete(context.Context, *DeleteRequest) (*MutationResponse, error) {
	return nil, unimplemented("Delete")
}
func (UnimplementedRemindersServer) Reset(context.Context, *ResetRequest) (*ResetResponse, error) {
	return nil, unimplemented("Reset")
}

// RegisterRemindersServer attaches srv to s.
func RegisterRemindersServer(s grpc.ServiceRegistrar, srv RemindersServer) {
	s.RegisterService(&RemindersServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(RemindersServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RemindersServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RemindersServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var RemindersServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RemindersServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, RemindersServer.Register)},
		{MethodName: "GetSalt", Handler: unaryHandler(MethodGetSalt, RemindersServer.GetSalt)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, RemindersServer.Login)},
		{MethodName: "RefreshToken", Handler: unaryHandler(MethodRefreshToken, RemindersServer.RefreshToken)},
		{MethodName: "List", Handler: unaryHandler(MethodList, RemindersServer.List)},
		{MethodName: "Add", Handler: unaryHandler(MethodAdd, RemindersServer.Add)},
		{MethodName: "Change", Handler: unaryHandler(MethodChange, RemindersServer.Change)},
		{MethodName: "Delete", Handler: unaryHandler(MethodDelete, RemindersServer.Delete)},
		{MethodName: "Reset", Handler: unaryHandler(MethodReset, RemindersServer.Reset)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "remindsync/v1/reminders",
}
