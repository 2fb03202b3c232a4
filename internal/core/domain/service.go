package domain

// Service is a listing bound to exactly one asset. Its address is derived
// from the marketplace, the creator and the asset, and it's the transfer
// authority of the asset for the lifetime of the listing.
type Service struct {
	Address     string
	Marketplace string
	Creator     string
	Asset       string
	Price       uint64
	IsSoulbound bool
	Bump        uint8
	Name        string
	URI         string
	CreatedAt   int64
}
