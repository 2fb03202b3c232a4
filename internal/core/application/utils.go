package application

import (
	stderrors "errors"
	"strings"

	"github.com/arkade-os/marketd/pkg/errors"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
)

const (
	maxNameLength = 32
	maxURILength  = 200
	maxRoyaltyBps = 10000
)

func (a ListServiceArgs) validate() errors.Error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return errors.INVALID_ARGUMENT.New("missing service name")
	}
	if len(a.Name) > maxNameLength {
		return errors.INVALID_ARGUMENT.New(
			"service name must be at most %d bytes, got %d", maxNameLength, len(a.Name),
		).WithMetadata(map[string]any{"name": a.Name})
	}
	if len(strings.TrimSpace(a.URI)) == 0 {
		return errors.INVALID_ARGUMENT.New("missing service uri")
	}
	if len(a.URI) > maxURILength {
		return errors.INVALID_ARGUMENT.New(
			"service uri must be at most %d bytes, got %d", maxURILength, len(a.URI),
		).WithMetadata(map[string]any{"uri": a.URI})
	}
	if a.RoyaltyBasisPoints > maxRoyaltyBps {
		return errors.INVALID_ARGUMENT.New(
			"royalties must be at most %d basis points, got %d",
			maxRoyaltyBps, a.RoyaltyBasisPoints,
		)
	}
	return nil
}

func parseAddress(field, value string) (marketlib.Address, errors.Error) {
	if value == "" {
		return marketlib.Address{}, errors.INVALID_ARGUMENT.New("missing %s address", field).
			WithMetadata(map[string]any{"field": field})
	}
	addr, err := marketlib.ParseAddress(value)
	if err != nil {
		return marketlib.Address{}, errors.INVALID_ARGUMENT.New("invalid %s: %s", field, err).
			WithMetadata(map[string]any{"field": field, "value": value})
	}
	return addr, nil
}

func addressProofMismatch(address, expected string, bump uint8, cause error) errors.Error {
	return errors.ADDRESS_PROOF_MISMATCH.Wrap(cause).WithMetadata(errors.AddressProofMetadata{
		Address:  address,
		Expected: expected,
		Bump:     bump,
	})
}

// toError unwraps the typed error returned from within a transaction, if
// any.
func toError(err error) errors.Error {
	if err == nil {
		return nil
	}
	var typedErr errors.Error
	if stderrors.As(err, &typedErr) {
		return typedErr
	}
	return errors.INTERNAL_ERROR.Wrap(err)
}
