package permissions_test

import (
	"testing"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/interface/grpc/permissions"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

func TestAllPermissionsByMethod(t *testing.T) {
	all := permissions.AllPermissionsByMethod()

	services := []struct {
		name    string
		methods []string
	}{
		{marketv1.MarketServiceName, methodNames(marketv1.MarketService_ServiceDesc)},
		{marketv1.AdminServiceName, methodNames(marketv1.AdminService_ServiceDesc)},
	}
	for _, svc := range services {
		for _, m := range svc.methods {
			_, ok := all["/"+svc.name+"/"+m]
			require.True(t, ok, "missing permissions for %s/%s", svc.name, m)
		}
	}

	_, ok := permissions.Whitelist()[marketv1.AdminService_Airdrop_FullMethodName]
	require.False(t, ok)

	require.Contains(t, permissions.AdminPermissions(), bakery.Op{
		Entity: permissions.EntityAdmin, Action: "write",
	})
	require.NotContains(t, permissions.ReadOnlyPermissions(), bakery.Op{
		Entity: permissions.EntityAdmin, Action: "write",
	})
}

func methodNames(desc grpc.ServiceDesc) []string {
	names := make([]string, 0, len(desc.Methods)+len(desc.Streams))
	for _, m := range desc.Methods {
		names = append(names, m.MethodName)
	}
	for _, s := range desc.Streams {
		names = append(names, s.StreamName)
	}
	return names
}
