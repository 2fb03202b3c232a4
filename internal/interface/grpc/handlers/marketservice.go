package handlers

import (
	"context"
	"time"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type handler struct {
	version   string
	heartbeat time.Duration

	svc application.Service

	eventsListenerHandler *broker[*marketv1.SubscribeEventsResponse]
}

func NewMarketServiceHandler(
	version string, service application.Service, heartbeat time.Duration,
) marketv1.MarketServiceServer {
	h := &handler{
		version:               version,
		heartbeat:             heartbeat,
		svc:                   service,
		eventsListenerHandler: newBroker[*marketv1.SubscribeEventsResponse](),
	}

	go h.listenToEvents()

	return h
}

func (h *handler) InitializeMarketplace(
	ctx context.Context, req *marketv1.InitializeMarketplaceRequest,
) (*marketv1.InitializeMarketplaceResponse, error) {
	mkt, err := h.svc.InitializeMarketplace(ctx, req.Admin, req.Seed)
	if err != nil {
		return nil, err
	}
	return &marketv1.InitializeMarketplaceResponse{Marketplace: marketplace(*mkt).toApi()}, nil
}

func (h *handler) ListService(
	ctx context.Context, req *marketv1.ListServiceRequest,
) (*marketv1.ListServiceResponse, error) {
	royaltyBps, err := parseBasisPoints(req.RoyaltyBasisPoints)
	if err != nil {
		return nil, err
	}
	svc, a, err := h.svc.ListService(
		ctx, req.Creator, req.Marketplace, req.Asset, application.ListServiceArgs{
			Name:               req.Name,
			URI:                req.Uri,
			Price:              req.Price,
			Soulbound:          req.Soulbound,
			RoyaltyBasisPoints: royaltyBps,
			Hours:              req.Hours,
			Terms:              req.Terms,
		},
	)
	if err != nil {
		return nil, err
	}
	return &marketv1.ListServiceResponse{
		Service: service(*svc).toApi(),
		Asset:   asset(*a).toApi(),
	}, nil
}

func (h *handler) BuyService(
	ctx context.Context, req *marketv1.BuyServiceRequest,
) (*marketv1.BuyServiceResponse, error) {
	receipt, err := h.svc.BuyService(ctx, req.Buyer, req.Service, req.Asset)
	if err != nil {
		return nil, err
	}
	return &marketv1.BuyServiceResponse{Receipt: purchaseReceipt(*receipt).toApi()}, nil
}

func (h *handler) TransferAsset(
	ctx context.Context, req *marketv1.TransferAssetRequest,
) (*marketv1.TransferAssetResponse, error) {
	a, err := h.svc.TransferAsset(ctx, req.Authority, req.Asset, req.NewOwner)
	if err != nil {
		return nil, err
	}
	return &marketv1.TransferAssetResponse{Asset: asset(*a).toApi()}, nil
}

func (h *handler) TransferFunds(
	ctx context.Context, req *marketv1.TransferFundsRequest,
) (*marketv1.TransferFundsResponse, error) {
	if err := h.svc.TransferFunds(ctx, req.From, req.To, req.Amount); err != nil {
		return nil, err
	}
	return &marketv1.TransferFundsResponse{}, nil
}

func (h *handler) GetInfo(
	ctx context.Context, _ *marketv1.GetInfoRequest,
) (*marketv1.GetInfoResponse, error) {
	info := h.svc.GetInfo(ctx)
	return &marketv1.GetInfoResponse{
		Version:    h.version,
		ProgramId:  info.ProgramID,
		TxFee:      info.TxFee,
		MinReserve: info.MinReserve,
	}, nil
}

func (h *handler) GetMarketplace(
	ctx context.Context, req *marketv1.GetMarketplaceRequest,
) (*marketv1.GetMarketplaceResponse, error) {
	mkt, err := h.svc.GetMarketplace(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	return &marketv1.GetMarketplaceResponse{Marketplace: marketplace(*mkt).toApi()}, nil
}

func (h *handler) GetService(
	ctx context.Context, req *marketv1.GetServiceRequest,
) (*marketv1.GetServiceResponse, error) {
	svc, err := h.svc.GetService(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	return &marketv1.GetServiceResponse{Service: service(*svc).toApi()}, nil
}

func (h *handler) ListServices(
	ctx context.Context, req *marketv1.ListServicesRequest,
) (*marketv1.ListServicesResponse, error) {
	list, err := h.svc.ListServices(ctx, req.Marketplace)
	if err != nil {
		return nil, err
	}
	services := make([]marketv1.Service, 0, len(list))
	for _, svc := range list {
		services = append(services, *service(svc).toApi())
	}
	return &marketv1.ListServicesResponse{Services: services}, nil
}

func (h *handler) GetAsset(
	ctx context.Context, req *marketv1.GetAssetRequest,
) (*marketv1.GetAssetResponse, error) {
	a, err := h.svc.GetAsset(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	return &marketv1.GetAssetResponse{Asset: asset(*a).toApi()}, nil
}

func (h *handler) GetBalance(
	ctx context.Context, req *marketv1.GetBalanceRequest,
) (*marketv1.GetBalanceResponse, error) {
	balance, err := h.svc.GetBalance(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	return &marketv1.GetBalanceResponse{Balance: balance}, nil
}

func (h *handler) GetHistory(
	ctx context.Context, req *marketv1.GetHistoryRequest,
) (*marketv1.GetHistoryResponse, error) {
	history, err := h.svc.GetHistory(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	return &marketv1.GetHistoryResponse{Events: events(history).toApi()}, nil
}

func (h *handler) SubscribeEvents(
	req *marketv1.SubscribeEventsRequest, stream marketv1.MarketService_SubscribeEventsServer,
) error {
	listener := newListener[*marketv1.SubscribeEventsResponse](uuid.NewString(), req.Addresses)

	h.eventsListenerHandler.pushListener(listener)
	defer h.eventsListenerHandler.removeListener(listener.id)

	timer := time.NewTimer(h.heartbeat)
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(h.heartbeat)
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ev := <-listener.ch:
			if err := stream.Send(ev); err != nil {
				return err
			}
			resetTimer()
		case <-timer.C:
			hb := &marketv1.SubscribeEventsResponse{Heartbeat: &marketv1.Heartbeat{}}
			if err := stream.Send(hb); err != nil {
				return err
			}
			resetTimer()
		}
	}
}

// listenToEvents forwards the committed events to the listeners subscribed
// to any of the addresses they reference. Batches arrive in save order and
// are forwarded from this single routine, so listeners see them in order.
func (h *handler) listenToEvents() {
	for batch := range h.svc.GetEventsChannel(context.Background()) {
		if !h.eventsListenerHandler.hasListeners() {
			continue
		}
		for _, e := range batch {
			ev := &marketv1.SubscribeEventsResponse{Event: event(e).toApi()}
			count := h.eventsListenerHandler.publish(ev, topicsOf(e))
			log.Debugf("forwarded event %s to %d listeners", e.Type, count)
		}
	}
}

func topicsOf(e domain.Event) []string {
	topics := make([]string, 0, 5)
	for _, addr := range []string{e.Marketplace, e.Service, e.Asset, e.From, e.To} {
		if addr != "" {
			topics = append(topics, addr)
		}
	}
	return topics
}
