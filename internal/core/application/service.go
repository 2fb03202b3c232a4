package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	attributeHours = "hours"
	attributeTerms = "terms"

	eventsChSize = 256

	insufficientFundsMsg = "You don't have enough funds to buy the service"
)

type service struct {
	repoManager ports.RepoManager
	cache       ports.LiveStore
	announcer   ports.Announcer
	metrics     *marketMetrics

	programID  marketlib.Address
	txFee      uint64
	minReserve uint64

	eventsCh   chan []domain.Event
	eventsLock sync.RWMutex
	stopped    bool
}

func NewService(
	repoManager ports.RepoManager,
	cache ports.LiveStore,
	announcer ports.Announcer,
	config Config,
) (Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if cache == nil {
		return nil, fmt.Errorf("missing live store")
	}

	programID := config.ProgramID
	if programID == "" {
		programID = marketlib.DefaultProgramID
	}
	programAddr, err := marketlib.ParseAddress(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %s", err)
	}

	metrics, err := newMarketMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %s", err)
	}

	return &service{
		repoManager: repoManager,
		cache:       cache,
		announcer:   announcer,
		metrics:     metrics,
		programID:   programAddr,
		txFee:       config.TxFee,
		minReserve:  config.MinReserve,
		eventsCh:    make(chan []domain.Event, eventsChSize),
	}, nil
}

func (s *service) Start() errors.Error {
	log.Debug("starting app service...")
	s.repoManager.Events().RegisterEventsHandler(domain.MarketTopic, s.onEvents)
	return nil
}

func (s *service) Stop() {
	s.repoManager.Events().ClearRegisteredHandlers(domain.MarketTopic)

	s.eventsLock.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.eventsCh)
	}
	s.eventsLock.Unlock()

	if s.announcer != nil {
		s.announcer.Close()
		log.Debug("closed announcer")
	}
	s.cache.Close()
	log.Debug("closed live store")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) InitializeMarketplace(
	ctx context.Context, admin string, seed uint64,
) (*domain.Marketplace, errors.Error) {
	adminAddr, err := parseAddress("admin", admin)
	if err != nil {
		return nil, err
	}

	addr, bump, deriveErr := marketlib.DeriveMarketplaceAddress(s.programID, adminAddr, seed)
	if deriveErr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(deriveErr)
	}

	marketplace := domain.Marketplace{
		Address:   addr.String(),
		Admin:     admin,
		Seed:      seed,
		Bump:      bump,
		CreatedAt: time.Now().Unix(),
	}

	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repoManager.Marketplaces().Add(ctx, marketplace); err != nil {
			if stderrors.Is(err, domain.ErrAlreadyExists) {
				return errors.ADDRESS_COLLISION.New(
					"marketplace %s already exists", marketplace.Address,
				).WithMetadata(errors.AddressMetadata{Address: marketplace.Address})
			}
			return err
		}
		return s.chargeFee(ctx, admin)
	}); err != nil {
		return nil, toError(err)
	}

	s.cacheMarketplace(ctx, marketplace)
	s.metrics.marketplaces.Add(ctx, 1)

	event := domain.NewEvent(domain.EventTypeMarketplaceInitialized)
	event.Marketplace = marketplace.Address
	event.From = admin
	event.Fee = s.txFee
	s.saveEvents(ctx, event)

	log.Infof("initialized marketplace %s (admin %s, seed %d)", marketplace.Address, admin, seed)
	return &marketplace, nil
}

func (s *service) ListService(
	ctx context.Context, creator, marketplace, asset string, args ListServiceArgs,
) (*domain.Service, *domain.Asset, errors.Error) {
	creatorAddr, err := parseAddress("creator", creator)
	if err != nil {
		return nil, nil, err
	}
	assetAddr, err := parseAddress("asset", asset)
	if err != nil {
		return nil, nil, err
	}
	if _, err := parseAddress("marketplace", marketplace); err != nil {
		return nil, nil, err
	}
	if err := args.validate(); err != nil {
		return nil, nil, err
	}

	mkt, err := s.getMarketplace(ctx, marketplace)
	if err != nil {
		return nil, nil, err
	}
	mktAddr := marketlib.MustParseAddress(mkt.Address)

	addr, bump, deriveErr := marketlib.DeriveServiceAddress(
		s.programID, mktAddr, creatorAddr, assetAddr,
	)
	if deriveErr != nil {
		return nil, nil, errors.INTERNAL_ERROR.Wrap(deriveErr)
	}

	now := time.Now().Unix()
	svc := domain.Service{
		Address:     addr.String(),
		Marketplace: mkt.Address,
		Creator:     creator,
		Asset:       asset,
		Price:       args.Price,
		IsSoulbound: args.Soulbound,
		Bump:        bump,
		Name:        args.Name,
		URI:         args.URI,
		CreatedAt:   now,
	}

	policy := domain.PolicyTransferable
	if args.Soulbound {
		policy = domain.PolicyPermanentlyLocked
	}
	royalties := domain.Royalties{
		BasisPoints: args.RoyaltyBasisPoints,
		Creators:    []domain.Creator{{Address: creator, Percentage: 100}},
		RuleSet:     domain.RuleSetNone,
	}
	attributes := []domain.Attribute{
		{Key: attributeHours, Value: args.Hours},
		{Key: attributeTerms, Value: args.Terms},
	}
	boundAsset, assetErr := domain.NewAsset(
		asset, creator, args.Name, args.URI, policy, svc.Address, royalties, attributes, now,
	)
	if assetErr != nil {
		return nil, nil, errors.INVALID_ARGUMENT.Wrap(assetErr)
	}

	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repoManager.Services().Add(ctx, svc); err != nil {
			if stderrors.Is(err, domain.ErrAlreadyExists) {
				return errors.ADDRESS_COLLISION.New("service %s already exists", svc.Address).
					WithMetadata(errors.AddressMetadata{Address: svc.Address})
			}
			return err
		}
		reg := registry{s.repoManager.Assets()}
		if err := reg.register(ctx, *boundAsset); err != nil {
			return err
		}
		return s.chargeFee(ctx, creator)
	}); err != nil {
		return nil, nil, toError(err)
	}

	s.cacheService(ctx, svc)
	s.metrics.listed(ctx, svc.IsSoulbound)

	event := domain.NewEvent(domain.EventTypeServiceListed)
	event.Marketplace = svc.Marketplace
	event.Service = svc.Address
	event.Asset = svc.Asset
	event.From = creator
	event.Amount = svc.Price
	event.Fee = s.txFee
	s.saveEvents(ctx, event)

	log.Infof(
		"listed service %s in marketplace %s (asset %s, price %d, soulbound %t)",
		svc.Address, svc.Marketplace, svc.Asset, svc.Price, svc.IsSoulbound,
	)
	return &svc, boundAsset, nil
}

func (s *service) BuyService(
	ctx context.Context, buyer, service, asset string,
) (*PurchaseReceipt, errors.Error) {
	receipt, err := s.buyService(ctx, buyer, service, asset)
	if err != nil {
		s.metrics.purchaseFailed(ctx, err.CodeName())
		return nil, err
	}
	s.metrics.purchased(ctx, receipt.Price)
	return receipt, nil
}

func (s *service) buyService(
	ctx context.Context, buyer, service, asset string,
) (*PurchaseReceipt, errors.Error) {
	if _, err := parseAddress("buyer", buyer); err != nil {
		return nil, err
	}
	assetAddr, err := parseAddress("asset", asset)
	if err != nil {
		return nil, err
	}
	if _, err := parseAddress("service", service); err != nil {
		return nil, err
	}

	svc, err := s.getService(ctx, service)
	if err != nil {
		return nil, err
	}
	mkt, err := s.getMarketplace(ctx, svc.Marketplace)
	if err != nil {
		return nil, err
	}
	if err := s.verifyService(*mkt, *svc, assetAddr); err != nil {
		return nil, err
	}

	l := ledger{s.repoManager.Accounts(), s.minReserve}
	reg := registry{s.repoManager.Assets()}

	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		balance, err := l.balance(ctx, buyer)
		if err != nil {
			return err
		}
		if balance <= svc.Price {
			return errors.INSUFFICIENT_FUNDS.New(insufficientFundsMsg).
				WithMetadata(errors.InsufficientFundsMetadata{
					Buyer:   buyer,
					Balance: balance,
					Price:   svc.Price,
				})
		}

		if err := l.transfer(ctx, buyer, svc.Creator, svc.Price); err != nil {
			return err
		}
		if _, err := reg.transfer(ctx, asset, buyer, svc.Address); err != nil {
			return err
		}
		return s.chargeFee(ctx, buyer)
	}); err != nil {
		return nil, toError(err)
	}

	receipt := &PurchaseReceipt{
		Id:        uuid.New().String(),
		Service:   svc.Address,
		Asset:     asset,
		Buyer:     buyer,
		Seller:    svc.Creator,
		Price:     svc.Price,
		Fee:       s.txFee,
		Timestamp: time.Now().Unix(),
	}

	event := domain.NewEvent(domain.EventTypeServicePurchased)
	event.Id = receipt.Id
	event.Marketplace = svc.Marketplace
	event.Service = svc.Address
	event.Asset = asset
	event.From = buyer
	event.To = svc.Creator
	event.Amount = svc.Price
	event.Fee = s.txFee
	s.saveEvents(ctx, event)

	log.Infof(
		"service %s purchased by %s for %d (asset %s)", svc.Address, buyer, svc.Price, asset,
	)
	return receipt, nil
}

func (s *service) TransferAsset(
	ctx context.Context, authority, asset, newOwner string,
) (*domain.Asset, errors.Error) {
	if _, err := parseAddress("authority", authority); err != nil {
		return nil, err
	}
	if _, err := parseAddress("asset", asset); err != nil {
		return nil, err
	}
	if _, err := parseAddress("new owner", newOwner); err != nil {
		return nil, err
	}

	reg := registry{s.repoManager.Assets()}
	var transferred *domain.Asset
	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		a, err := reg.transfer(ctx, asset, newOwner, authority)
		if err != nil {
			return err
		}
		transferred = a
		return s.chargeFee(ctx, authority)
	}); err != nil {
		return nil, toError(err)
	}

	event := domain.NewEvent(domain.EventTypeAssetTransferred)
	event.Asset = asset
	event.From = authority
	event.To = newOwner
	event.Fee = s.txFee
	s.saveEvents(ctx, event)

	log.Debugf("asset %s transferred to %s by %s", asset, newOwner, authority)
	return transferred, nil
}

func (s *service) TransferFunds(
	ctx context.Context, from, to string, amount uint64,
) errors.Error {
	if _, err := parseAddress("sender", from); err != nil {
		return err
	}
	if _, err := parseAddress("receiver", to); err != nil {
		return err
	}
	if amount == 0 {
		return errors.INVALID_ARGUMENT.New("amount must be greater than zero")
	}
	if from == to {
		return errors.INVALID_ARGUMENT.New("sender and receiver must be different")
	}

	l := ledger{s.repoManager.Accounts(), s.minReserve}
	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := l.transfer(ctx, from, to, amount); err != nil {
			return err
		}
		return s.chargeFee(ctx, from)
	}); err != nil {
		return toError(err)
	}

	event := domain.NewEvent(domain.EventTypeFundsTransferred)
	event.From = from
	event.To = to
	event.Amount = amount
	event.Fee = s.txFee
	s.saveEvents(ctx, event)

	log.Debugf("transferred %d from %s to %s", amount, from, to)
	return nil
}

func (s *service) Airdrop(
	ctx context.Context, to string, amount uint64,
) (uint64, errors.Error) {
	if _, err := parseAddress("receiver", to); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, errors.INVALID_ARGUMENT.New("amount must be greater than zero")
	}

	l := ledger{s.repoManager.Accounts(), s.minReserve}
	var balance uint64
	if err := s.repoManager.RunInTx(ctx, func(ctx context.Context) error {
		b, err := l.mint(ctx, to, amount)
		if err != nil {
			return err
		}
		balance = b
		return nil
	}); err != nil {
		return 0, toError(err)
	}

	event := domain.NewEvent(domain.EventTypeAccountFunded)
	event.To = to
	event.Amount = amount
	s.saveEvents(ctx, event)

	log.Infof("airdropped %d to %s", amount, to)
	return balance, nil
}

func (s *service) GetMarketplace(
	ctx context.Context, address string,
) (*domain.Marketplace, errors.Error) {
	if _, err := parseAddress("marketplace", address); err != nil {
		return nil, err
	}
	return s.getMarketplace(ctx, address)
}

func (s *service) GetService(
	ctx context.Context, address string,
) (*domain.Service, errors.Error) {
	if _, err := parseAddress("service", address); err != nil {
		return nil, err
	}
	svc, err := s.getService(ctx, address)
	if err != nil {
		return nil, err
	}
	mkt, err := s.getMarketplace(ctx, svc.Marketplace)
	if err != nil {
		return nil, err
	}
	assetAddr, err := parseAddress("asset", svc.Asset)
	if err != nil {
		return nil, err
	}
	if err := s.verifyService(*mkt, *svc, assetAddr); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *service) ListServices(
	ctx context.Context, marketplace string,
) ([]domain.Service, errors.Error) {
	if _, err := parseAddress("marketplace", marketplace); err != nil {
		return nil, err
	}
	if _, err := s.getMarketplace(ctx, marketplace); err != nil {
		return nil, err
	}
	services, err := s.repoManager.Services().ListByMarketplace(ctx, marketplace)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return services, nil
}

func (s *service) GetAsset(ctx context.Context, address string) (*domain.Asset, errors.Error) {
	if _, err := parseAddress("asset", address); err != nil {
		return nil, err
	}
	asset, err := s.repoManager.Assets().Get(ctx, address)
	if err != nil {
		if stderrors.Is(err, domain.ErrNotFound) {
			return nil, errors.ASSET_NOT_FOUND.New("asset %s not found", address).
				WithMetadata(errors.AddressMetadata{Address: address})
		}
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return asset, nil
}

func (s *service) GetBalance(ctx context.Context, address string) (uint64, errors.Error) {
	if _, err := parseAddress("account", address); err != nil {
		return 0, err
	}
	account, err := s.repoManager.Accounts().Get(ctx, address)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	return account.Balance, nil
}

func (s *service) GetHistory(ctx context.Context, address string) ([]domain.Event, errors.Error) {
	if _, err := parseAddress("address", address); err != nil {
		return nil, err
	}
	events, err := s.repoManager.Events().GetEventsByAddress(ctx, domain.MarketTopic, address)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return events, nil
}

func (s *service) GetInfo(_ context.Context) *ServiceInfo {
	return &ServiceInfo{
		ProgramID:  s.programID.String(),
		TxFee:      s.txFee,
		MinReserve: s.minReserve,
	}
}

func (s *service) GetEventsChannel(_ context.Context) <-chan []domain.Event {
	return s.eventsCh
}

// getMarketplace returns the marketplace at the given address after checking
// that the address matches the recorded seeds.
func (s *service) getMarketplace(
	ctx context.Context, address string,
) (*domain.Marketplace, errors.Error) {
	mkt, err := s.cache.Records().GetMarketplace(ctx, address)
	if err != nil {
		log.WithError(err).Warnf("failed to get marketplace %s from cache", address)
	}
	if mkt == nil {
		mkt, err = s.repoManager.Marketplaces().Get(ctx, address)
		if err != nil {
			if stderrors.Is(err, domain.ErrNotFound) {
				return nil, errors.MARKETPLACE_NOT_FOUND.New("marketplace %s not found", address).
					WithMetadata(errors.AddressMetadata{Address: address})
			}
			return nil, errors.INTERNAL_ERROR.Wrap(err)
		}
		defer s.cacheMarketplace(ctx, *mkt)
	}

	if err := s.verifyMarketplace(*mkt, address); err != nil {
		return nil, err
	}
	return mkt, nil
}

func (s *service) getService(ctx context.Context, address string) (*domain.Service, errors.Error) {
	svc, err := s.cache.Records().GetService(ctx, address)
	if err != nil {
		log.WithError(err).Warnf("failed to get service %s from cache", address)
	}
	if svc != nil {
		return svc, nil
	}

	svc, err = s.repoManager.Services().Get(ctx, address)
	if err != nil {
		if stderrors.Is(err, domain.ErrNotFound) {
			return nil, errors.SERVICE_NOT_FOUND.New("service %s not found", address).
				WithMetadata(errors.AddressMetadata{Address: address})
		}
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	s.cacheService(ctx, *svc)
	return svc, nil
}

func (s *service) verifyMarketplace(mkt domain.Marketplace, address string) errors.Error {
	expected, err := marketlib.ParseAddress(address)
	if err != nil {
		return addressProofMismatch(address, "", mkt.Bump, err)
	}
	admin, err := marketlib.ParseAddress(mkt.Admin)
	if err != nil {
		return addressProofMismatch(address, "", mkt.Bump, err)
	}
	if err := marketlib.VerifyMarketplaceAddress(
		s.programID, admin, mkt.Seed, mkt.Bump, expected,
	); err != nil {
		canonical, _, _ := marketlib.DeriveMarketplaceAddress(s.programID, admin, mkt.Seed)
		return addressProofMismatch(address, canonical.String(), mkt.Bump, err)
	}
	return nil
}

func (s *service) verifyService(
	mkt domain.Marketplace, svc domain.Service, asset marketlib.Address,
) errors.Error {
	expected, err := marketlib.ParseAddress(svc.Address)
	if err != nil {
		return addressProofMismatch(svc.Address, "", svc.Bump, err)
	}
	creator, err := marketlib.ParseAddress(svc.Creator)
	if err != nil {
		return addressProofMismatch(svc.Address, "", svc.Bump, err)
	}
	mktAddr, err := marketlib.ParseAddress(mkt.Address)
	if err != nil {
		return addressProofMismatch(svc.Address, "", svc.Bump, err)
	}
	if err := marketlib.VerifyServiceAddress(
		s.programID, mktAddr, creator, asset, svc.Bump, expected,
	); err != nil {
		canonical, _, _ := marketlib.DeriveServiceAddress(s.programID, mktAddr, creator, asset)
		return addressProofMismatch(svc.Address, canonical.String(), svc.Bump, err)
	}
	return nil
}

func (s *service) chargeFee(ctx context.Context, payer string) error {
	l := ledger{s.repoManager.Accounts(), s.minReserve}
	return l.burn(ctx, payer, s.txFee)
}

func (s *service) cacheMarketplace(ctx context.Context, mkt domain.Marketplace) {
	if err := s.cache.Records().AddMarketplace(ctx, mkt); err != nil {
		log.WithError(err).Warnf("failed to cache marketplace %s", mkt.Address)
	}
}

func (s *service) cacheService(ctx context.Context, svc domain.Service) {
	if err := s.cache.Records().AddService(ctx, svc); err != nil {
		log.WithError(err).Warnf("failed to cache service %s", svc.Address)
	}
}

// saveEvents persists the events of a committed operation. A failure here
// does not revert the operation.
func (s *service) saveEvents(ctx context.Context, events ...domain.Event) {
	if err := s.repoManager.Events().Save(ctx, domain.MarketTopic, events...); err != nil {
		log.WithError(err).Warn("failed to save events")
	}
}

func (s *service) onEvents(events []domain.Event) {
	for _, event := range events {
		if event.Type == domain.EventTypeServiceListed {
			go s.announce(event)
		}
	}

	s.eventsLock.RLock()
	defer s.eventsLock.RUnlock()
	if s.stopped {
		return
	}
	select {
	case s.eventsCh <- events:
	default:
		log.Warnf("events channel is full, dropped %d events", len(events))
	}
}

func (s *service) announce(event domain.Event) {
	if s.announcer == nil {
		return
	}
	ctx := context.Background()

	svc, err := s.getService(ctx, event.Service)
	if err != nil {
		log.WithError(err).Warnf("failed to announce service %s", event.Service)
		return
	}
	mkt, err := s.getMarketplace(ctx, svc.Marketplace)
	if err != nil {
		log.WithError(err).Warnf("failed to announce service %s", event.Service)
		return
	}
	asset, assetErr := s.repoManager.Assets().Get(ctx, svc.Asset)
	if assetErr != nil {
		log.WithError(assetErr).Warnf("failed to announce service %s", event.Service)
		return
	}

	hours, _ := asset.Attribute(attributeHours)
	terms, _ := asset.Attribute(attributeTerms)
	if err := s.announcer.AnnounceService(ctx, ports.ServiceAnnouncement{
		Service:     *svc,
		Name:        asset.Name,
		URI:         asset.URI,
		Hours:       hours,
		Terms:       terms,
		RoyaltyBps:  asset.Royalties.BasisPoints,
		Marketplace: *mkt,
	}); err != nil {
		log.WithError(err).Warnf("failed to announce service %s", event.Service)
		return
	}
	log.Debugf("announced service %s", svc.Address)
}
