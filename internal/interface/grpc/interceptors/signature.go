package interceptors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"google.golang.org/grpc"
)

// SignatureVerifier authenticates the requests changing the state of the
// market. Every signer must sign the request for the called method, the
// request must not be expired and must not have been already processed.
type SignatureVerifier struct {
	nonces ports.NonceStore
	maxAge time.Duration
	now    func() time.Time
}

// NewSignatureVerifier returns a verifier rejecting requests valid for more
// than maxAge. A zero maxAge disables the bound.
func NewSignatureVerifier(nonces ports.NonceStore, maxAge time.Duration) *SignatureVerifier {
	return &SignatureVerifier{nonces: nonces, maxAge: maxAge, now: time.Now}
}

func (v *SignatureVerifier) Verify(ctx context.Context, fullMethod string, req any) error {
	signed, ok := req.(marketv1.SignedRequest)
	if v == nil || !ok {
		return nil
	}

	now := v.now().Unix()
	validUntil := signed.GetValidUntil()
	if validUntil <= 0 {
		return errors.INVALID_ARGUMENT.New("missing valid until")
	}
	if validUntil < now {
		return errors.REQUEST_EXPIRED.New("request expired at %d", validUntil).
			WithMetadata(errors.RequestExpiredMetadata{ValidUntil: validUntil, Now: now})
	}
	if v.maxAge > 0 && validUntil > now+int64(v.maxAge.Seconds()) {
		return errors.INVALID_ARGUMENT.New(
			"valid until %d is too far in the future, max allowed is %s", validUntil, v.maxAge,
		)
	}

	signers := signed.Signers()
	signatures := signed.GetSignatures()
	if len(signatures) != len(signers) {
		return errors.INVALID_SIGNATURE.New(
			"expected %d signatures, got %d", len(signers), len(signatures),
		).WithMetadata(errors.InvalidSignatureMetadata{Method: fullMethod})
	}

	payload, err := signed.SigningPayload()
	if err != nil {
		return errors.INVALID_ARGUMENT.Wrap(err)
	}
	msg := marketlib.SigningMessage(fullMethod, payload)

	for i, signer := range signers {
		addr, err := marketlib.ParseAddress(signer)
		if err != nil {
			return errors.INVALID_ARGUMENT.New("invalid signer %q: %s", signer, err)
		}
		metadata := errors.InvalidSignatureMetadata{Signer: signer, Method: fullMethod}
		sig, err := marketlib.ParseSignature(signatures[i])
		if err != nil {
			return errors.INVALID_SIGNATURE.New("malformed signature: %s", err).
				WithMetadata(metadata)
		}
		if !marketlib.Verify(addr, msg, sig) {
			return errors.INVALID_SIGNATURE.New("invalid signature").WithMetadata(metadata)
		}
	}

	// The request is remembered until it expires, after that it would be
	// rejected anyway.
	digest := sha256.Sum256(msg)
	ttl := time.Duration(validUntil-now+1) * time.Second
	added, err := v.nonces.Add(ctx, hex.EncodeToString(digest[:]), ttl)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if !added {
		return errors.REQUEST_REPLAYED.New("request already processed")
	}
	return nil
}

func unarySignatureHandler(verifier *SignatureVerifier) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (any, error) {
		if err := verifier.Verify(ctx, info.FullMethod, req); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}
