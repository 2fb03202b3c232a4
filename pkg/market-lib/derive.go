package marketlib

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// DefaultProgramID is the namespace derived addresses are bound to unless
	// configured otherwise.
	DefaultProgramID = "9Qn3V5179PjU2NkYwD3KLcp9ravS94upMC33wTJZSEFH"

	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	MarketplaceSeed = []byte("marketplace")
	ServiceSeed     = []byte("service")
)

var (
	ErrMaxSeedLengthExceeded = errors.New("seed exceeds max length")
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrInvalidSeeds          = errors.New("seeds result in an address on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable bump")
	ErrAddressMismatch       = errors.New("address does not match its seeds")
)

// CreateProgramAddress hashes the given seeds, which must already include the
// bump, into an address outside of the ed25519 curve.
func CreateProgramAddress(seeds [][]byte, programID Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr Address
	copy(addr[:], h.Sum(nil))
	if isOnCurve(addr[:]) {
		return Address{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches the highest bump that, appended to the seeds,
// yields a valid derived address.
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

func MarketplaceSeeds(admin Address, seed uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, seed)
	return [][]byte{MarketplaceSeed, admin[:], le}
}

func ServiceSeeds(marketplace, creator, asset Address) [][]byte {
	return [][]byte{ServiceSeed, marketplace[:], creator[:], asset[:]}
}

func DeriveMarketplaceAddress(
	programID, admin Address, seed uint64,
) (Address, uint8, error) {
	return FindProgramAddress(MarketplaceSeeds(admin, seed), programID)
}

func DeriveServiceAddress(
	programID, marketplace, creator, asset Address,
) (Address, uint8, error) {
	return FindProgramAddress(ServiceSeeds(marketplace, creator, asset), programID)
}

// VerifyMarketplaceAddress recomputes the marketplace address from its seeds
// and the recorded bump.
func VerifyMarketplaceAddress(
	programID, admin Address, seed uint64, bump uint8, expected Address,
) error {
	return verify(MarketplaceSeeds(admin, seed), bump, programID, expected)
}

// VerifyServiceAddress recomputes the service address from its seeds and the
// recorded bump.
func VerifyServiceAddress(
	programID, marketplace, creator, asset Address, bump uint8, expected Address,
) error {
	return verify(ServiceSeeds(marketplace, creator, asset), bump, programID, expected)
}

func verify(seeds [][]byte, bump uint8, programID, expected Address) error {
	addr, err := CreateProgramAddress(append(seeds, []byte{bump}), programID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAddressMismatch, err)
	}
	if addr != expected {
		return fmt.Errorf("%w: got %s, expected %s", ErrAddressMismatch, addr, expected)
	}
	return nil
}

// isOnCurve accepts non canonical encodings of valid points, matching the
// decompression rules used by Solana.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
