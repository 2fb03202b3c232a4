package permissions

import (
	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	EntityMarket = "market"
	EntityAdmin  = "admin"
	EntityHealth = "health"
)

func ReadOnlyPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityMarket,
			Action: "read",
		},
		{
			Entity: EntityAdmin,
			Action: "read",
		},
	}
}

func AdminPermissions() []bakery.Op {
	return append(ReadOnlyPermissions(), []bakery.Op{
		{
			Entity: EntityMarket,
			Action: "write",
		},
		{
			Entity: EntityAdmin,
			Action: "write",
		},
	}...)
}

// Whitelist returns the methods callable without macaroon. The market rpcs
// changing the state are authenticated by the signatures of the request.
func Whitelist() map[string][]bakery.Op {
	marketRead := []bakery.Op{{Entity: EntityMarket, Action: "read"}}
	marketWrite := []bakery.Op{{Entity: EntityMarket, Action: "write"}}
	healthRead := []bakery.Op{{Entity: EntityHealth, Action: "read"}}

	return map[string][]bakery.Op{
		marketv1.MarketService_InitializeMarketplace_FullMethodName: marketWrite,
		marketv1.MarketService_ListService_FullMethodName:           marketWrite,
		marketv1.MarketService_BuyService_FullMethodName:            marketWrite,
		marketv1.MarketService_TransferAsset_FullMethodName:         marketWrite,
		marketv1.MarketService_TransferFunds_FullMethodName:         marketWrite,
		marketv1.MarketService_GetInfo_FullMethodName:               marketRead,
		marketv1.MarketService_GetMarketplace_FullMethodName:        marketRead,
		marketv1.MarketService_GetService_FullMethodName:            marketRead,
		marketv1.MarketService_ListServices_FullMethodName:          marketRead,
		marketv1.MarketService_GetAsset_FullMethodName:              marketRead,
		marketv1.MarketService_GetBalance_FullMethodName:            marketRead,
		marketv1.MarketService_GetHistory_FullMethodName:            marketRead,
		marketv1.MarketService_SubscribeEvents_FullMethodName:       marketRead,
		grpchealth.Health_Check_FullMethodName:                      healthRead,
		grpchealth.Health_Watch_FullMethodName:                      healthRead,
	}
}

// AllPermissionsByMethod returns a mapping of the rpc server calls to the
// permissions they require.
func AllPermissionsByMethod() map[string][]bakery.Op {
	permissions := Whitelist()
	permissions[marketv1.AdminService_Airdrop_FullMethodName] = []bakery.Op{{
		Entity: EntityAdmin,
		Action: "write",
	}}
	return permissions
}
