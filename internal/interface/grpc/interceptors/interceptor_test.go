package interceptors

import (
	"context"
	"encoding/hex"
	"testing"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/interface/grpc/permissions"
	"github.com/arkade-os/marketd/pkg/errors"
	"github.com/arkade-os/marketd/pkg/macaroons"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

func TestUnaryChain(t *testing.T) {
	macaroonSvc := newMacaroonService(t)
	readiness := NewReadinessService()
	chain := UnaryChain(macaroonSvc, readiness, newTestVerifier())

	okHandler := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	getInfo := &grpc.UnaryServerInfo{FullMethod: marketv1.MarketService_GetInfo_FullMethodName}
	airdrop := &grpc.UnaryServerInfo{FullMethod: marketv1.AdminService_Airdrop_FullMethodName}

	t.Run("not ready", func(t *testing.T) {
		_, err := chain(context.Background(), &marketv1.GetInfoRequest{}, getInfo, okHandler)
		require.Equal(t, codes.Unavailable, status.Code(err))
	})

	readiness.MarkAppServiceStarted()

	t.Run("whitelisted", func(t *testing.T) {
		resp, err := chain(context.Background(), &marketv1.GetInfoRequest{}, getInfo, okHandler)
		require.NoError(t, err)
		require.Equal(t, "ok", resp)
	})

	t.Run("macaroon", func(t *testing.T) {
		_, err := chain(context.Background(), &marketv1.AirdropRequest{}, airdrop, okHandler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))

		readOnly := bake(t, macaroonSvc, permissions.ReadOnlyPermissions())
		_, err = chain(readOnly, &marketv1.AirdropRequest{}, airdrop, okHandler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))

		admin := bake(t, macaroonSvc, permissions.AdminPermissions())
		resp, err := chain(admin, &marketv1.AirdropRequest{}, airdrop, okHandler)
		require.NoError(t, err)
		require.Equal(t, "ok", resp)
	})

	t.Run("unknown method", func(t *testing.T) {
		info := &grpc.UnaryServerInfo{FullMethod: "/market.v1.AdminService/Unknown"}
		_, err := chain(context.Background(), nil, info, okHandler)
		require.Equal(t, codes.Unimplemented, status.Code(err))
	})

	t.Run("structured errors", func(t *testing.T) {
		_, err := chain(
			context.Background(), &marketv1.GetInfoRequest{}, getInfo,
			func(ctx context.Context, req any) (any, error) {
				return nil, errors.SERVICE_NOT_FOUND.New("service not found").
					WithMetadata(errors.AddressMetadata{Address: "addr"})
			},
		)
		st, ok := status.FromError(err)
		require.True(t, ok)
		require.Equal(t, codes.NotFound, st.Code())
		name, md, ok := errors.FromStatus(st)
		require.True(t, ok)
		require.Equal(t, "SERVICE_NOT_FOUND", name)
		require.Equal(t, "addr", md["address"])
	})

	t.Run("panic", func(t *testing.T) {
		_, err := chain(
			context.Background(), &marketv1.GetInfoRequest{}, getInfo,
			func(ctx context.Context, req any) (any, error) {
				panic("boom")
			},
		)
		require.Equal(t, codes.Internal, status.Code(err))
	})

	readiness.MarkAppServiceStopped()

	t.Run("stopped", func(t *testing.T) {
		_, err := chain(context.Background(), &marketv1.GetInfoRequest{}, getInfo, okHandler)
		require.Equal(t, codes.Unavailable, status.Code(err))

		// Health checks are never gated.
		health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		_, err = chain(context.Background(), nil, health, okHandler)
		require.NoError(t, err)
	})
}

func TestPanicRecovery(t *testing.T) {
	method := marketv1.MarketService_BuyService_FullMethodName
	panicking := func(ctx context.Context, req any) (any, error) {
		panic("boom")
	}

	resp, err := unaryPanicRecoveryInterceptor()(
		context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: method}, panicking,
	)
	require.Nil(t, resp)
	require.Error(t, err)
	marketErr, ok := err.(errors.Error)
	require.True(t, ok)
	require.Equal(t, errors.INTERNAL_ERROR.Code, marketErr.Code())
	require.Contains(t, marketErr.Message(), method)

	err = streamPanicRecoveryInterceptor()(
		nil, nil, &grpc.StreamServerInfo{FullMethod: method},
		func(srv any, stream grpc.ServerStream) error { panic("boom") },
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), method)
}

func newMacaroonService(t *testing.T) *macaroons.Service {
	t.Helper()
	keyStore, err := macaroons.NewRootKeyStorage(t.TempDir())
	require.NoError(t, err)
	svc, err := macaroons.NewService(keyStore, "marketd")
	require.NoError(t, err)
	return svc
}

func bake(t *testing.T, svc *macaroons.Service, ops []bakery.Op) context.Context {
	t.Helper()
	mac, err := svc.BakeMacaroon(context.Background(), ops)
	require.NoError(t, err)
	return metadata.NewIncomingContext(
		context.Background(), metadata.Pairs("macaroon", hex.EncodeToString(mac)),
	)
}
