package dbutil

import "github.com/arkade-os/marketd/internal/core/domain"

// RestoreAssetDelegate rebuilds the plugin set of an asset loaded from a
// table that stores only its delegate authority and freeze flag.
func RestoreAssetDelegate(asset *domain.Asset, delegate string, frozen bool) {
	switch asset.Policy {
	case domain.PolicyPermanentlyLocked:
		asset.PermanentTransferDelegate = &domain.PermanentTransferDelegate{Authority: delegate}
		asset.PermanentFreezeDelegate = &domain.PermanentFreezeDelegate{
			Authority: delegate,
			Frozen:    frozen,
		}
	default:
		asset.TransferDelegate = &domain.TransferDelegate{Authority: delegate}
	}
}
