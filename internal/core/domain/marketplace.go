package domain

// Marketplace is the namespace record created by an admin. The address is
// derived from the admin and the seed, and the bump is the proof of such
// derivation.
type Marketplace struct {
	Address   string
	Admin     string
	Seed      uint64
	Bump      uint8
	CreatedAt int64
}
