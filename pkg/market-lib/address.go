package marketlib

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

const AddressLength = 32

// Address identifies an account, an asset or a derived record. Its text form
// is base58.
type Address [AddressLength]byte

func ParseAddress(s string) (Address, error) {
	var addr Address
	buf, err := base58.Decode(s)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(buf) != AddressLength {
		return addr, fmt.Errorf(
			"invalid address %q: expected %d bytes, got %d", s, AddressLength, len(buf),
		)
	}
	copy(addr[:], buf)
	return addr, nil
}

func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return bytes.Clone(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
