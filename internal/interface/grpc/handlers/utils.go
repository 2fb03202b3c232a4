package handlers

import (
	"math"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
)

func parseBasisPoints(bps uint32) (uint16, errors.Error) {
	if bps > math.MaxUint16 {
		return 0, errors.INVALID_ARGUMENT.New("royalty basis points %d out of range", bps)
	}
	return uint16(bps), nil
}

type marketplace domain.Marketplace

func (m marketplace) toApi() *marketv1.Marketplace {
	return &marketv1.Marketplace{
		Address:   m.Address,
		Admin:     m.Admin,
		Seed:      m.Seed,
		Bump:      uint32(m.Bump),
		CreatedAt: m.CreatedAt,
	}
}

type service domain.Service

func (s service) toApi() *marketv1.Service {
	return &marketv1.Service{
		Address:     s.Address,
		Marketplace: s.Marketplace,
		Creator:     s.Creator,
		Asset:       s.Asset,
		Name:        s.Name,
		Uri:         s.URI,
		Price:       s.Price,
		Soulbound:   s.IsSoulbound,
		Bump:        uint32(s.Bump),
		CreatedAt:   s.CreatedAt,
	}
}

type asset domain.Asset

func (a asset) toApi() *marketv1.Asset {
	creators := make([]marketv1.Creator, 0, len(a.Royalties.Creators))
	for _, c := range a.Royalties.Creators {
		creators = append(creators, marketv1.Creator{
			Address:    c.Address,
			Percentage: uint32(c.Percentage),
		})
	}
	attributes := make([]marketv1.Attribute, 0, len(a.Attributes))
	for _, attr := range a.Attributes {
		attributes = append(attributes, marketv1.Attribute{Key: attr.Key, Value: attr.Value})
	}
	return &marketv1.Asset{
		Address:  a.Address,
		Owner:    a.Owner,
		Name:     a.Name,
		Uri:      a.URI,
		Policy:   a.Policy.String(),
		Delegate: domain.Asset(a).Delegate(),
		Frozen:   domain.Asset(a).IsFrozen(),
		Sealed:   a.Sealed,
		Royalties: marketv1.Royalties{
			BasisPoints: uint32(a.Royalties.BasisPoints),
			Creators:    creators,
		},
		Attributes:    attributes,
		TransferCount: a.TransferCount,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type purchaseReceipt application.PurchaseReceipt

func (r purchaseReceipt) toApi() *marketv1.Receipt {
	return &marketv1.Receipt{
		Id:        r.Id,
		Service:   r.Service,
		Asset:     r.Asset,
		Buyer:     r.Buyer,
		Seller:    r.Seller,
		Price:     r.Price,
		Fee:       r.Fee,
		Timestamp: r.Timestamp,
	}
}

type event domain.Event

func (e event) toApi() *marketv1.Event {
	return &marketv1.Event{
		Id:          e.Id,
		Type:        string(e.Type),
		Marketplace: e.Marketplace,
		Service:     e.Service,
		Asset:       e.Asset,
		From:        e.From,
		To:          e.To,
		Amount:      e.Amount,
		Fee:         e.Fee,
		Timestamp:   e.Timestamp,
	}
}

type events []domain.Event

func (e events) toApi() []marketv1.Event {
	list := make([]marketv1.Event, 0, len(e))
	for _, ev := range e {
		list = append(list, *event(ev).toApi())
	}
	return list
}
