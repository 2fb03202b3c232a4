package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// recoverHandlerPanic turns a panic of the handler of the given method into
// an INTERNAL_ERROR, so that a single bad request can't take marketd down.
func recoverHandlerPanic(method string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	log.WithFields(log.Fields{
		"method": method,
		"panic":  r,
		"stack":  string(debug.Stack()),
	}).Error("recovered from handler panic")
	*err = errors.INTERNAL_ERROR.New("failed to handle %s", method)
}

func unaryPanicRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer recoverHandlerPanic(info.FullMethod, &err)
		return handler(ctx, req)
	}
}

func streamPanicRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any, stream grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) (err error) {
		defer recoverHandlerPanic(info.FullMethod, &err)
		return handler(srv, stream)
	}
}
