package macaroons

import (
	"context"
	"encoding/hex"
	"fmt"

	"google.golang.org/grpc/metadata"
	"gopkg.in/macaroon-bakery.v2/bakery"
	"gopkg.in/macaroon-bakery.v2/bakery/checkers"
	macaroon "gopkg.in/macaroon.v2"
)

const metadataKey = "macaroon"

// Service bakes and validates the macaroons granting access to the
// protected rpcs.
type Service struct {
	*bakery.Bakery
}

func NewService(rootKeyStore bakery.RootKeyStore, location string) (*Service, error) {
	if rootKeyStore == nil {
		return nil, fmt.Errorf("missing root key store")
	}
	if location == "" {
		return nil, fmt.Errorf("missing location")
	}

	checker := checkers.New(nil)
	b := bakery.New(bakery.BakeryParams{
		Location:     location,
		RootKeyStore: rootKeyStore,
		Checker:      checker,
	})
	return &Service{b}, nil
}

// BakeMacaroon returns the serialized macaroon granting the given ops.
func (s *Service) BakeMacaroon(ctx context.Context, ops []bakery.Op) ([]byte, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("missing permissions")
	}
	mac, err := s.Oven.NewMacaroon(ctx, bakery.LatestVersion, nil, ops...)
	if err != nil {
		return nil, err
	}
	return mac.M().MarshalBinary()
}

// ValidateMacaroon checks the hex encoded macaroon found in the incoming
// metadata of ctx grants all the required ops.
func (s *Service) ValidateMacaroon(
	ctx context.Context, requiredPermissions []bakery.Op, fullMethod string,
) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return fmt.Errorf("unable to get metadata from context")
	}
	values := md.Get(metadataKey)
	if len(values) != 1 {
		return fmt.Errorf("expected 1 macaroon, got %d", len(values))
	}

	macBytes, err := hex.DecodeString(values[0])
	if err != nil {
		return fmt.Errorf("invalid macaroon encoding: %s", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return fmt.Errorf("failed to parse macaroon: %s", err)
	}

	authChecker := s.Checker.Auth(macaroon.Slice{mac})
	if _, err := authChecker.Allow(ctx, requiredPermissions...); err != nil {
		return fmt.Errorf("permission denied for %s: %s", fullMethod, err)
	}
	return nil
}
