package announcer

import (
	"context"
	"errors"

	"github.com/arkade-os/marketd/internal/core/ports"
)

type multiAnnouncer []ports.Announcer

// NewMultiAnnouncer forwards every announcement to all the given announcers.
func NewMultiAnnouncer(announcers ...ports.Announcer) ports.Announcer {
	if len(announcers) == 1 {
		return announcers[0]
	}
	return multiAnnouncer(announcers)
}

func (m multiAnnouncer) AnnounceService(
	ctx context.Context, announcement ports.ServiceAnnouncement,
) error {
	errs := make([]error, 0, len(m))
	for _, a := range m {
		if err := a.AnnounceService(ctx, announcement); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiAnnouncer) Close() {
	for _, a := range m {
		a.Close()
	}
}
