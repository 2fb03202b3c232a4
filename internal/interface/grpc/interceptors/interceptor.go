package interceptors

import (
	"github.com/arkade-os/marketd/pkg/macaroons"
	middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
)

// UnaryChain returns the interceptors run on every unary call, REST calls
// included.
func UnaryChain(
	macaroonSvc *macaroons.Service, readiness *ReadinessService, verifier *SignatureVerifier,
) grpc.UnaryServerInterceptor {
	return middleware.ChainUnaryServer(
		unaryLogger,
		errorConverter,
		unaryPanicRecoveryInterceptor(),
		unaryReadinessHandler(readiness),
		unaryMacaroonAuthHandler(macaroonSvc),
		unarySignatureHandler(verifier),
	)
}

// UnaryInterceptor returns the grpc server option chaining all unary
// interceptors.
func UnaryInterceptor(
	macaroonSvc *macaroons.Service, readiness *ReadinessService, verifier *SignatureVerifier,
) grpc.ServerOption {
	return grpc.UnaryInterceptor(UnaryChain(macaroonSvc, readiness, verifier))
}

// StreamInterceptor returns the grpc server option chaining all stream
// interceptors.
func StreamInterceptor(
	macaroonSvc *macaroons.Service, readiness *ReadinessService,
) grpc.ServerOption {
	return grpc.StreamInterceptor(
		middleware.ChainStreamServer(
			streamLogger,
			streamPanicRecoveryInterceptor(),
			streamReadinessHandler(readiness),
			streamMacaroonAuthHandler(macaroonSvc),
		),
	)
}
