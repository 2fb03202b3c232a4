package marketv1

import (
	"context"

	"google.golang.org/grpc"
)

type MarketServiceClient interface {
	InitializeMarketplace(
		ctx context.Context, in *InitializeMarketplaceRequest, opts ...grpc.CallOption,
	) (*InitializeMarketplaceResponse, error)
	ListService(
		ctx context.Context, in *ListServiceRequest, opts ...grpc.CallOption,
	) (*ListServiceResponse, error)
	BuyService(
		ctx context.Context, in *BuyServiceRequest, opts ...grpc.CallOption,
	) (*BuyServiceResponse, error)
	TransferAsset(
		ctx context.Context, in *TransferAssetRequest, opts ...grpc.CallOption,
	) (*TransferAssetResponse, error)
	TransferFunds(
		ctx context.Context, in *TransferFundsRequest, opts ...grpc.CallOption,
	) (*TransferFundsResponse, error)
	GetInfo(
		ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption,
	) (*GetInfoResponse, error)
	GetMarketplace(
		ctx context.Context, in *GetMarketplaceRequest, opts ...grpc.CallOption,
	) (*GetMarketplaceResponse, error)
	GetService(
		ctx context.Context, in *GetServiceRequest, opts ...grpc.CallOption,
	) (*GetServiceResponse, error)
	ListServices(
		ctx context.Context, in *ListServicesRequest, opts ...grpc.CallOption,
	) (*ListServicesResponse, error)
	GetAsset(
		ctx context.Context, in *GetAssetRequest, opts ...grpc.CallOption,
	) (*GetAssetResponse, error)
	GetBalance(
		ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption,
	) (*GetBalanceResponse, error)
	GetHistory(
		ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption,
	) (*GetHistoryResponse, error)
	SubscribeEvents(
		ctx context.Context, in *SubscribeEventsRequest, opts ...grpc.CallOption,
	) (MarketService_SubscribeEventsClient, error)
}

type MarketService_SubscribeEventsClient interface {
	Recv() (*SubscribeEventsResponse, error)
	grpc.ClientStream
}

type AdminServiceClient interface {
	Airdrop(ctx context.Context, in *AirdropRequest, opts ...grpc.CallOption) (*AirdropResponse, error)
}

type marketServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMarketServiceClient returns a client encoding every call with the
// json codec.
func NewMarketServiceClient(cc grpc.ClientConnInterface) MarketServiceClient {
	return &marketServiceClient{cc}
}

func invoke[Resp any](
	ctx context.Context, cc grpc.ClientConnInterface, method string, in any,
	opts []grpc.CallOption,
) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *marketServiceClient) InitializeMarketplace(
	ctx context.Context, in *InitializeMarketplaceRequest, opts ...grpc.CallOption,
) (*InitializeMarketplaceResponse, error) {
	return invoke[InitializeMarketplaceResponse](
		ctx, c.cc, MarketService_InitializeMarketplace_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) ListService(
	ctx context.Context, in *ListServiceRequest, opts ...grpc.CallOption,
) (*ListServiceResponse, error) {
	return invoke[ListServiceResponse](
		ctx, c.cc, MarketService_ListService_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) BuyService(
	ctx context.Context, in *BuyServiceRequest, opts ...grpc.CallOption,
) (*BuyServiceResponse, error) {
	return invoke[BuyServiceResponse](ctx, c.cc, MarketService_BuyService_FullMethodName, in, opts)
}

func (c *marketServiceClient) TransferAsset(
	ctx context.Context, in *TransferAssetRequest, opts ...grpc.CallOption,
) (*TransferAssetResponse, error) {
	return invoke[TransferAssetResponse](
		ctx, c.cc, MarketService_TransferAsset_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) TransferFunds(
	ctx context.Context, in *TransferFundsRequest, opts ...grpc.CallOption,
) (*TransferFundsResponse, error) {
	return invoke[TransferFundsResponse](
		ctx, c.cc, MarketService_TransferFunds_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) GetInfo(
	ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption,
) (*GetInfoResponse, error) {
	return invoke[GetInfoResponse](ctx, c.cc, MarketService_GetInfo_FullMethodName, in, opts)
}

func (c *marketServiceClient) GetMarketplace(
	ctx context.Context, in *GetMarketplaceRequest, opts ...grpc.CallOption,
) (*GetMarketplaceResponse, error) {
	return invoke[GetMarketplaceResponse](
		ctx, c.cc, MarketService_GetMarketplace_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) GetService(
	ctx context.Context, in *GetServiceRequest, opts ...grpc.CallOption,
) (*GetServiceResponse, error) {
	return invoke[GetServiceResponse](ctx, c.cc, MarketService_GetService_FullMethodName, in, opts)
}

func (c *marketServiceClient) ListServices(
	ctx context.Context, in *ListServicesRequest, opts ...grpc.CallOption,
) (*ListServicesResponse, error) {
	return invoke[ListServicesResponse](
		ctx, c.cc, MarketService_ListServices_FullMethodName, in, opts,
	)
}

func (c *marketServiceClient) GetAsset(
	ctx context.Context, in *GetAssetRequest, opts ...grpc.CallOption,
) (*GetAssetResponse, error) {
	return invoke[GetAssetResponse](ctx, c.cc, MarketService_GetAsset_FullMethodName, in, opts)
}

func (c *marketServiceClient) GetBalance(
	ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption,
) (*GetBalanceResponse, error) {
	return invoke[GetBalanceResponse](ctx, c.cc, MarketService_GetBalance_FullMethodName, in, opts)
}

func (c *marketServiceClient) GetHistory(
	ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption,
) (*GetHistoryResponse, error) {
	return invoke[GetHistoryResponse](ctx, c.cc, MarketService_GetHistory_FullMethodName, in, opts)
}

func (c *marketServiceClient) SubscribeEvents(
	ctx context.Context, in *SubscribeEventsRequest, opts ...grpc.CallOption,
) (MarketService_SubscribeEventsClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(
		ctx, &MarketService_ServiceDesc.Streams[0],
		MarketService_SubscribeEvents_FullMethodName, opts...,
	)
	if err != nil {
		return nil, err
	}
	x := &subscribeEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type subscribeEventsClient struct {
	grpc.ClientStream
}

func (x *subscribeEventsClient) Recv() (*SubscribeEventsResponse, error) {
	m := new(SubscribeEventsResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc}
}

func (c *adminServiceClient) Airdrop(
	ctx context.Context, in *AirdropRequest, opts ...grpc.CallOption,
) (*AirdropResponse, error) {
	return invoke[AirdropResponse](ctx, c.cc, AdminService_Airdrop_FullMethodName, in, opts)
}
