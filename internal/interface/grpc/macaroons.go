package grpcservice

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/arkade-os/marketd/internal/interface/grpc/permissions"
	"github.com/arkade-os/marketd/pkg/macaroons"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	adminMacaroonFile = "admin.macaroon"
	roMacaroonFile    = "readonly.macaroon"
)

// macaroonFile is a macaroon baked by marketd on first start.
type macaroonFile struct {
	name string
	perm fs.FileMode
	ops  func() []bakery.Op
}

var macaroonFiles = []macaroonFile{
	{name: adminMacaroonFile, perm: 0600, ops: permissions.AdminPermissions},
	{name: roMacaroonFile, perm: 0644, ops: permissions.ReadOnlyPermissions},
}

// genMacaroons bakes the macaroon files missing from datadir and returns the
// names of the ones it created, sorted.
func genMacaroons(
	ctx context.Context, svc *macaroons.Service, datadir string,
) ([]string, error) {
	missing := make([]macaroonFile, 0, len(macaroonFiles))
	for _, f := range macaroonFiles {
		if !pathExists(filepath.Join(datadir, f.name)) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(datadir, 0755); err != nil {
		return nil, err
	}

	created := make([]string, 0, len(missing))
	for _, f := range missing {
		macBytes, err := svc.BakeMacaroon(ctx, f.ops())
		if err != nil {
			return created, err
		}
		path := filepath.Join(datadir, f.name)
		if err := os.WriteFile(path, macBytes, f.perm); err != nil {
			// nolint:all
			os.Remove(path)
			return created, err
		}
		created = append(created, f.name)
	}
	sort.Strings(created)
	return created, nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
