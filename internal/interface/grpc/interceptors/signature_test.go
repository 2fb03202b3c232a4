package interceptors

import (
	"context"
	"testing"
	"time"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	inmemorylivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/inmemory"
	"github.com/arkade-os/marketd/pkg/errors"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

var now = time.Unix(1_700_000_000, 0)

func TestSignatureVerifier(t *testing.T) {
	buyer, err := marketlib.GenerateKeyPair()
	require.NoError(t, err)
	stranger, err := marketlib.GenerateKeyPair()
	require.NoError(t, err)

	method := marketv1.MarketService_BuyService_FullMethodName
	newRequest := func(validUntil int64) *marketv1.BuyServiceRequest {
		return &marketv1.BuyServiceRequest{
			Buyer:      buyer.Address().String(),
			Service:    "8MoT8coFvE6CRcK3TtwpT6QMWR9q2qArppqgQpoFPd6c",
			Asset:      stranger.Address().String(),
			ValidUntil: validUntil,
		}
	}

	t.Run("valid", func(t *testing.T) {
		verifier := newTestVerifier()
		req := newRequest(now.Unix() + 60)
		require.NoError(t, marketv1.Sign(method, req, buyer))

		require.NoError(t, verifier.Verify(context.Background(), method, req))

		// Requests without signers are not checked.
		err := verifier.Verify(context.Background(), method, &marketv1.GetInfoRequest{})
		require.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		verifier := newTestVerifier()

		unsigned := newRequest(now.Unix() + 60)

		expired := newRequest(now.Unix() - 1)
		require.NoError(t, marketv1.Sign(method, expired, buyer))

		tooLong := newRequest(now.Add(2 * time.Hour).Unix())
		require.NoError(t, marketv1.Sign(method, tooLong, buyer))

		missingValidUntil := newRequest(0)
		require.NoError(t, marketv1.Sign(method, missingValidUntil, buyer))

		wrongMethod := newRequest(now.Unix() + 60)
		require.NoError(t, marketv1.Sign(
			marketv1.MarketService_TransferFunds_FullMethodName, wrongMethod, buyer,
		))

		tampered := newRequest(now.Unix() + 60)
		require.NoError(t, marketv1.Sign(method, tampered, buyer))
		tampered.Asset = buyer.Address().String()

		forged := newRequest(now.Unix() + 60)
		forged.Signatures = []string{
			stranger.Sign(marketlib.SigningMessage(method, []byte("{}"))).String(),
		}

		malformed := newRequest(now.Unix() + 60)
		malformed.Signatures = []string{"not a signature"}

		fixtures := []struct {
			name string
			req  *marketv1.BuyServiceRequest
			code uint16
		}{
			{"missing signatures", unsigned, errors.INVALID_SIGNATURE.Code},
			{"expired", expired, errors.REQUEST_EXPIRED.Code},
			{"valid for too long", tooLong, errors.INVALID_ARGUMENT.Code},
			{"missing valid until", missingValidUntil, errors.INVALID_ARGUMENT.Code},
			{"signed for another method", wrongMethod, errors.INVALID_SIGNATURE.Code},
			{"tampered", tampered, errors.INVALID_SIGNATURE.Code},
			{"forged", forged, errors.INVALID_SIGNATURE.Code},
			{"malformed signature", malformed, errors.INVALID_SIGNATURE.Code},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				err := verifier.Verify(context.Background(), method, f.req)
				requireErrorCode(t, f.code, err)
			})
		}
	})

	t.Run("replayed", func(t *testing.T) {
		verifier := newTestVerifier()
		req := newRequest(now.Unix() + 60)
		require.NoError(t, marketv1.Sign(method, req, buyer))

		require.NoError(t, verifier.Verify(context.Background(), method, req))
		err := verifier.Verify(context.Background(), method, req)
		requireErrorCode(t, errors.REQUEST_REPLAYED.Code, err)

		// Re-signing with a different expiry makes it a new request.
		req.ValidUntil++
		require.NoError(t, marketv1.Sign(method, req, buyer))
		require.NoError(t, verifier.Verify(context.Background(), method, req))
	})

	t.Run("interceptor", func(t *testing.T) {
		interceptor := unarySignatureHandler(newTestVerifier())
		info := &grpc.UnaryServerInfo{FullMethod: method}

		called := false
		_, err := interceptor(
			context.Background(), newRequest(now.Unix()+60), info,
			func(ctx context.Context, req any) (any, error) {
				called = true
				return nil, nil
			},
		)
		requireErrorCode(t, errors.INVALID_SIGNATURE.Code, err)
		require.False(t, called)

		req := newRequest(now.Unix() + 60)
		require.NoError(t, marketv1.Sign(method, req, buyer))
		resp, err := interceptor(
			context.Background(), req, info,
			func(ctx context.Context, req any) (any, error) {
				called = true
				return "ok", nil
			},
		)
		require.NoError(t, err)
		require.Equal(t, "ok", resp)
		require.True(t, called)
	})
}

func newTestVerifier() *SignatureVerifier {
	verifier := NewSignatureVerifier(inmemorylivestore.NewNonceStore(), time.Hour)
	verifier.now = func() time.Time { return now }
	return verifier
}

func requireErrorCode(t *testing.T, expected uint16, err error) {
	t.Helper()
	require.Error(t, err)
	var structuredErr errors.Error
	require.ErrorAs(t, err, &structuredErr)
	require.Equal(t, expected, structuredErr.Code())
}
