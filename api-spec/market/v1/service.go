package marketv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	MarketServiceName = "market.v1.MarketService"
	AdminServiceName  = "market.v1.AdminService"

	MarketService_InitializeMarketplace_FullMethodName = "/market.v1.MarketService/InitializeMarketplace"
	MarketService_ListService_FullMethodName           = "/market.v1.MarketService/ListService"
	MarketService_BuyService_FullMethodName            = "/market.v1.MarketService/BuyService"
	MarketService_TransferAsset_FullMethodName         = "/market.v1.MarketService/TransferAsset"
	MarketService_TransferFunds_FullMethodName         = "/market.v1.MarketService/TransferFunds"
	MarketService_GetInfo_FullMethodName               = "/market.v1.MarketService/GetInfo"
	MarketService_GetMarketplace_FullMethodName        = "/market.v1.MarketService/GetMarketplace"
	MarketService_GetService_FullMethodName            = "/market.v1.MarketService/GetService"
	MarketService_ListServices_FullMethodName          = "/market.v1.MarketService/ListServices"
	MarketService_GetAsset_FullMethodName              = "/market.v1.MarketService/GetAsset"
	MarketService_GetBalance_FullMethodName            = "/market.v1.MarketService/GetBalance"
	MarketService_GetHistory_FullMethodName            = "/market.v1.MarketService/GetHistory"
	MarketService_SubscribeEvents_FullMethodName       = "/market.v1.MarketService/SubscribeEvents"

	AdminService_Airdrop_FullMethodName = "/market.v1.AdminService/Airdrop"
)

type MarketServiceServer interface {
	InitializeMarketplace(
		context.Context, *InitializeMarketplaceRequest,
	) (*InitializeMarketplaceResponse, error)
	ListService(context.Context, *ListServiceRequest) (*ListServiceResponse, error)
	BuyService(context.Context, *BuyServiceRequest) (*BuyServiceResponse, error)
	TransferAsset(context.Context, *TransferAssetRequest) (*TransferAssetResponse, error)
	TransferFunds(context.Context, *TransferFundsRequest) (*TransferFundsResponse, error)
	GetInfo(context.Context, *GetInfoRequest) (*GetInfoResponse, error)
	GetMarketplace(context.Context, *GetMarketplaceRequest) (*GetMarketplaceResponse, error)
	GetService(context.Context, *GetServiceRequest) (*GetServiceResponse, error)
	ListServices(context.Context, *ListServicesRequest) (*ListServicesResponse, error)
	GetAsset(context.Context, *GetAssetRequest) (*GetAssetResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
	SubscribeEvents(*SubscribeEventsRequest, MarketService_SubscribeEventsServer) error
}

type MarketService_SubscribeEventsServer interface {
	Send(*SubscribeEventsResponse) error
	grpc.ServerStream
}

type AdminServiceServer interface {
	Airdrop(context.Context, *AirdropRequest) (*AirdropResponse, error)
}

func RegisterMarketServiceServer(s grpc.ServiceRegistrar, srv MarketServiceServer) {
	s.RegisterService(&MarketService_ServiceDesc, srv)
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[S, Req, Resp any](
	fullMethod string, call func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(
		srv any, ctx context.Context, dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type subscribeEventsServer struct {
	grpc.ServerStream
}

func (x *subscribeEventsServer) Send(m *SubscribeEventsResponse) error {
	return x.ServerStream.SendMsg(m)
}

func subscribeEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MarketServiceServer).SubscribeEvents(in, &subscribeEventsServer{stream})
}

var MarketService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MarketServiceName,
	HandlerType: (*MarketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "InitializeMarketplace",
			Handler: unaryHandler(
				MarketService_InitializeMarketplace_FullMethodName,
				MarketServiceServer.InitializeMarketplace,
			),
		},
		{
			MethodName: "ListService",
			Handler: unaryHandler(
				MarketService_ListService_FullMethodName, MarketServiceServer.ListService,
			),
		},
		{
			MethodName: "BuyService",
			Handler: unaryHandler(
				MarketService_BuyService_FullMethodName, MarketServiceServer.BuyService,
			),
		},
		{
			MethodName: "TransferAsset",
			Handler: unaryHandler(
				MarketService_TransferAsset_FullMethodName, MarketServiceServer.TransferAsset,
			),
		},
		{
			MethodName: "TransferFunds",
			Handler: unaryHandler(
				MarketService_TransferFunds_FullMethodName, MarketServiceServer.TransferFunds,
			),
		},
		{
			MethodName: "GetInfo",
			Handler: unaryHandler(
				MarketService_GetInfo_FullMethodName, MarketServiceServer.GetInfo,
			),
		},
		{
			MethodName: "GetMarketplace",
			Handler: unaryHandler(
				MarketService_GetMarketplace_FullMethodName, MarketServiceServer.GetMarketplace,
			),
		},
		{
			MethodName: "GetService",
			Handler: unaryHandler(
				MarketService_GetService_FullMethodName, MarketServiceServer.GetService,
			),
		},
		{
			MethodName: "ListServices",
			Handler: unaryHandler(
				MarketService_ListServices_FullMethodName, MarketServiceServer.ListServices,
			),
		},
		{
			MethodName: "GetAsset",
			Handler: unaryHandler(
				MarketService_GetAsset_FullMethodName, MarketServiceServer.GetAsset,
			),
		},
		{
			MethodName: "GetBalance",
			Handler: unaryHandler(
				MarketService_GetBalance_FullMethodName, MarketServiceServer.GetBalance,
			),
		},
		{
			MethodName: "GetHistory",
			Handler: unaryHandler(
				MarketService_GetHistory_FullMethodName, MarketServiceServer.GetHistory,
			),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeEvents",
			Handler:       subscribeEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "market/v1/service.go",
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Airdrop",
			Handler: unaryHandler(
				AdminService_Airdrop_FullMethodName, AdminServiceServer.Airdrop,
			),
		},
	},
	Metadata: "market/v1/service.go",
}
