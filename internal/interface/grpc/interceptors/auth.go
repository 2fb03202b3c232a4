package interceptors

import (
	"context"
	"fmt"

	"github.com/arkade-os/marketd/internal/interface/grpc/permissions"
	"github.com/arkade-os/marketd/pkg/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func unaryMacaroonAuthHandler(macaroonSvc *macaroons.Service) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (any, error) {
		if err := CheckMacaroon(ctx, info.FullMethod, macaroonSvc); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

func streamMacaroonAuthHandler(macaroonSvc *macaroons.Service) grpc.StreamServerInterceptor {
	return func(
		srv any, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) error {
		if err := CheckMacaroon(ss.Context(), info.FullMethod, macaroonSvc); err != nil {
			return err
		}

		return handler(srv, ss)
	}
}

func CheckMacaroon(ctx context.Context, fullMethod string, svc *macaroons.Service) error {
	if svc == nil {
		return nil
	}
	// Whitelisted methods are allowed regardless of macaroons.
	if _, ok := permissions.Whitelist()[fullMethod]; ok {
		return nil
	}

	uriPermissions, ok := permissions.AllPermissionsByMethod()[fullMethod]
	if !ok {
		return status.Error(
			codes.Unimplemented, fmt.Sprintf("%s: unknown permissions required for method", fullMethod),
		)
	}

	if err := svc.ValidateMacaroon(ctx, uriPermissions, fullMethod); err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return nil
}
