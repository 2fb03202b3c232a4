package interceptors

import (
	"context"
	"errors"
	"time"

	marketerrors "github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

func unaryLogger(
	ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := log.WithContext(ctx).WithFields(log.Fields{
		"method":  info.FullMethod,
		"elapsed": time.Since(start).String(),
	})
	if err == nil {
		entry.Debug("handled market request")
		return resp, nil
	}

	var marketErr marketerrors.Error
	if !errors.As(err, &marketErr) {
		entry.WithError(err).Debug("market request failed")
		return resp, err
	}
	entry = entry.WithFields(marketErr.Log().Data)
	if marketErr.Code() == marketerrors.INTERNAL_ERROR.Code {
		entry.Error(marketErr.Error())
	} else {
		entry.Debug(marketErr.Error())
	}
	return resp, err
}

func streamLogger(
	srv any, stream grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler,
) error {
	log.WithField("method", info.FullMethod).Debug("opened market stream")
	err := handler(srv, stream)
	log.WithField("method", info.FullMethod).WithError(err).Debug("closed market stream")
	return err
}
