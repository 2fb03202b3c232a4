package interceptors

import (
	"context"
	"strings"
	"sync/atomic"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceNotReadyMsg = "market service not ready"

var protectedServicePrefixes = []string{
	"/" + marketv1.MarketServiceName + "/",
	"/" + marketv1.AdminServiceName + "/",
}

// ReadinessService rejects the market rpcs until the app service is
// started, and after it's stopped.
type ReadinessService struct {
	appStarted atomic.Bool
}

func NewReadinessService() *ReadinessService {
	return &ReadinessService{}
}

func (r *ReadinessService) MarkAppServiceStarted() {
	r.appStarted.Store(true)
}

func (r *ReadinessService) MarkAppServiceStopped() {
	r.appStarted.Store(false)
}

func (r *ReadinessService) Check(fullMethod string) error {
	if r == nil || !isProtectedServiceMethod(fullMethod) {
		return nil
	}
	if !r.appStarted.Load() {
		return status.Error(codes.Unavailable, serviceNotReadyMsg)
	}
	return nil
}

func isProtectedServiceMethod(fullMethod string) bool {
	for _, prefix := range protectedServicePrefixes {
		if strings.HasPrefix(fullMethod, prefix) {
			return true
		}
	}
	return false
}

func unaryReadinessHandler(readiness *ReadinessService) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (any, error) {
		if err := readiness.Check(info.FullMethod); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

func streamReadinessHandler(readiness *ReadinessService) grpc.StreamServerInterceptor {
	return func(
		srv any, stream grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) error {
		if err := readiness.Check(info.FullMethod); err != nil {
			return err
		}

		return handler(srv, stream)
	}
}
