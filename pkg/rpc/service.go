package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Unary declares one unary method of a hand-written service descriptor.
// S is the server interface the descriptor's HandlerType names.
func Unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke performs a unary call using the JSON codec.
func Invoke[Req any, Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := make([]grpc.CallOption, 0, len(opts)+1)
	callOpts = append(callOpts, grpc.CallContentSubtype(ContentSubtype))
	callOpts = append(callOpts, opts...)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}
