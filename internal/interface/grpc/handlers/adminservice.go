package handlers

import (
	"context"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/core/application"
)

type adminHandler struct {
	svc application.Service
}

func NewAdminHandler(service application.Service) marketv1.AdminServiceServer {
	return &adminHandler{service}
}

func (h *adminHandler) Airdrop(
	ctx context.Context, req *marketv1.AirdropRequest,
) (*marketv1.AirdropResponse, error) {
	balance, err := h.svc.Airdrop(ctx, req.Address, req.Amount)
	if err != nil {
		return nil, err
	}
	return &marketv1.AirdropResponse{Balance: balance}, nil
}
