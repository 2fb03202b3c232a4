package domain

import "fmt"

const (
	MaxBasisPoints = 10_000
	fullShare      = 100
)

// TransferPolicy is chosen once when the asset is registered and never
// changes afterwards.
type TransferPolicy uint8

const (
	// PolicyTransferable lets the owner or the transfer delegate move the
	// asset any number of times.
	PolicyTransferable TransferPolicy = iota
	// PolicyPermanentlyLocked lets only the permanent delegate move the
	// asset, once. The transfer seals it for good.
	PolicyPermanentlyLocked
)

func (p TransferPolicy) String() string {
	switch p {
	case PolicyTransferable:
		return "transferable"
	case PolicyPermanentlyLocked:
		return "permanently_locked"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

type RuleSet uint8

const (
	RuleSetNone RuleSet = iota
)

type TransferDelegate struct {
	Authority string
}

type PermanentTransferDelegate struct {
	Authority string
}

type PermanentFreezeDelegate struct {
	Authority string
	Frozen    bool
}

type Creator struct {
	Address    string
	Percentage uint8
}

type Royalties struct {
	BasisPoints uint16
	Creators    []Creator
	RuleSet     RuleSet
}

func (r Royalties) Validate() error {
	if r.BasisPoints > MaxBasisPoints {
		return fmt.Errorf(
			"%w: basis points %d exceed %d", ErrInvalidRoyalties, r.BasisPoints, MaxBasisPoints,
		)
	}
	total := 0
	for _, c := range r.Creators {
		if c.Address == "" {
			return fmt.Errorf("%w: missing creator address", ErrInvalidRoyalties)
		}
		total += int(c.Percentage)
	}
	if total != fullShare {
		return fmt.Errorf(
			"%w: creator shares sum to %d, expected %d", ErrInvalidRoyalties, total, fullShare,
		)
	}
	return nil
}

type Attribute struct {
	Key   string
	Value string
}

// Asset is the unit of unique ownership bound to a listing. Exactly one of
// TransferDelegate or the permanent delegates pair is set, according to the
// policy.
type Asset struct {
	Address                   string
	Owner                     string
	Name                      string
	URI                       string
	Policy                    TransferPolicy
	TransferDelegate          *TransferDelegate
	PermanentTransferDelegate *PermanentTransferDelegate
	PermanentFreezeDelegate   *PermanentFreezeDelegate
	Royalties                 Royalties
	Attributes                []Attribute
	Sealed                    bool
	TransferCount             uint32
	CreatedAt                 int64
	UpdatedAt                 int64
}

// NewAsset registers a new asset owned by owner whose transfer authority is
// the given delegate.
func NewAsset(
	address, owner, name, uri string,
	policy TransferPolicy, delegate string,
	royalties Royalties, attributes []Attribute, now int64,
) (*Asset, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	if delegate == "" {
		return nil, fmt.Errorf("missing delegate authority")
	}
	if err := royalties.Validate(); err != nil {
		return nil, err
	}

	asset := &Asset{
		Address:    address,
		Owner:      owner,
		Name:       name,
		URI:        uri,
		Policy:     policy,
		Royalties:  royalties,
		Attributes: attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch policy {
	case PolicyTransferable:
		asset.TransferDelegate = &TransferDelegate{delegate}
	case PolicyPermanentlyLocked:
		asset.PermanentTransferDelegate = &PermanentTransferDelegate{delegate}
		asset.PermanentFreezeDelegate = &PermanentFreezeDelegate{
			Authority: delegate,
			Frozen:    true,
		}
	default:
		return nil, fmt.Errorf("unknown transfer policy %s", policy)
	}
	return asset, nil
}

// Delegate returns the transfer authority attached to the asset.
func (a Asset) Delegate() string {
	if a.Policy == PolicyPermanentlyLocked {
		if a.PermanentTransferDelegate != nil {
			return a.PermanentTransferDelegate.Authority
		}
		return ""
	}
	if a.TransferDelegate != nil {
		return a.TransferDelegate.Authority
	}
	return ""
}

func (a Asset) IsFrozen() bool {
	return a.PermanentFreezeDelegate != nil && a.PermanentFreezeDelegate.Frozen
}

// CanTransfer reports whether authority would be allowed to move the asset.
func (a Asset) CanTransfer(authority string) error {
	switch a.Policy {
	case PolicyPermanentlyLocked:
		if a.Sealed {
			return fmt.Errorf("%w: %s", ErrAssetFrozen, a.Address)
		}
		if authority == "" || authority != a.Delegate() {
			return fmt.Errorf("%w: %s is not the permanent delegate", ErrDelegationDenied, authority)
		}
	default:
		if authority == "" || (authority != a.Owner && authority != a.Delegate()) {
			return fmt.Errorf(
				"%w: %s is neither the owner nor the delegate", ErrDelegationDenied, authority,
			)
		}
	}
	return nil
}

// Transfer moves the asset to newOwner on behalf of authority. The
// delegate is kept across transfers, a permanently locked asset gets sealed
// by its first transfer.
func (a *Asset) Transfer(newOwner, authority string, now int64) error {
	if newOwner == "" {
		return ErrInvalidOwner
	}
	if err := a.CanTransfer(authority); err != nil {
		return err
	}
	if newOwner == a.Owner {
		return fmt.Errorf("%w: %s", ErrSameOwner, newOwner)
	}

	if a.Policy == PolicyPermanentlyLocked {
		a.Sealed = true
	}
	a.Owner = newOwner
	a.TransferCount++
	a.UpdatedAt = now
	return nil
}

func (a Asset) Attribute(key string) (string, bool) {
	for _, attr := range a.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}
