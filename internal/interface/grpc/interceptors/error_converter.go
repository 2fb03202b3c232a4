package interceptors

import (
	"context"
	"errors"

	marketerrors "github.com/arkade-os/marketd/pkg/errors"
	"google.golang.org/grpc"
)

// errorConverter unwraps the structured error from the chain returned by the
// handler, so that grpc picks up its status with the ErrorInfo details.
func errorConverter(
	ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		var structuredErr marketerrors.Error
		if errors.As(err, &structuredErr) {
			return nil, structuredErr
		}
	}
	return resp, err
}
