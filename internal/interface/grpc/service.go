package grpcservice

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/arkade-os/marketd/internal/config"
	interfaces "github.com/arkade-os/marketd/internal/interface"
	"github.com/arkade-os/marketd/internal/interface/grpc/handlers"
	"github.com/arkade-os/marketd/internal/interface/grpc/interceptors"
	"github.com/arkade-os/marketd/internal/telemetry"
	"github.com/arkade-os/marketd/pkg/macaroons"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	macaroonsLocation = "marketd"
	macaroonsFolder   = "macaroons"

	tlsKeyFile  = "key.pem"
	tlsCertFile = "cert.pem"
	tlsFolder   = "tls"
)

type service struct {
	version       string
	config        Config
	appConfig     *config.Config
	server        *http.Server
	grpcServer    *grpc.Server
	healthSrv     *health.Server
	readinessSvc  *interceptors.ReadinessService
	appSvcStarted atomic.Bool
	macaroonSvc   *macaroons.Service
	otelShutdown  func(context.Context) error
}

func NewService(
	version string, svcConfig Config, appConfig *config.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	var macaroonSvc *macaroons.Service
	if !svcConfig.NoMacaroons {
		keyStore, err := macaroons.NewRootKeyStorage(svcConfig.macaroonsDatadir())
		if err != nil {
			return nil, err
		}
		svc, err := macaroons.NewService(keyStore, macaroonsLocation)
		if err != nil {
			return nil, err
		}
		macaroonSvc = svc
	}

	if !svcConfig.insecure() {
		if err := generateOperatorTLSKeyCert(
			svcConfig.tlsDatadir(), svcConfig.TLSExtraIPs, svcConfig.TLSExtraDomains,
		); err != nil {
			return nil, err
		}
		log.Debugf("generated TLS key pair at path: %s", svcConfig.tlsDatadir())
	}

	return &service{
		version:     version,
		config:      svcConfig,
		appConfig:   appConfig,
		macaroonSvc: macaroonSvc,
	}, nil
}

func (s *service) Start() error {
	if s.macaroonSvc != nil {
		datadir := s.config.macaroonsDatadir()
		created, err := genMacaroons(context.Background(), s.macaroonSvc, datadir)
		if err != nil {
			return fmt.Errorf("failed to create macaroons: %s", err)
		}
		if len(created) > 0 {
			log.WithField("files", created).Debugf("created macaroons at path %s", datadir)
		}
	}

	if err := s.start(); err != nil {
		return err
	}
	if err := s.startAppServices(); err != nil {
		s.stop()
		return err
	}
	log.Infof("started listening at %s", s.config.address())
	return nil
}

func (s *service) Stop() {
	s.stop()
	if s.otelShutdown != nil {
		if err := s.otelShutdown(context.Background()); err != nil {
			log.Errorf("failed to shutdown otel: %s", err)
		}
	}
	log.Info("shutdown service")
}

func (s *service) start() error {
	tlsConfig, err := s.config.tlsConfig()
	if err != nil {
		return err
	}

	if err := s.newServer(tlsConfig); err != nil {
		return err
	}

	if s.config.insecure() {
		// nolint:all
		go s.server.ListenAndServe()
	} else {
		// nolint:all
		go s.server.ListenAndServeTLS("", "")
	}

	return nil
}

func (s *service) stop() {
	if s.healthSrv != nil {
		s.healthSrv.Shutdown()
	}
	if s.appSvcStarted.CompareAndSwap(true, false) {
		if s.readinessSvc != nil {
			s.readinessSvc.MarkAppServiceStopped()
		}
		appSvc, _ := s.appConfig.AppService()
		if appSvc != nil {
			appSvc.Stop()
		}
	}

	// Hard-close HTTP listeners/conns first to avoid mixed HTTP/gRPC window.
	if s.server != nil {
		_ = s.server.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
}

func (s *service) startAppServices() error {
	if !s.appSvcStarted.CompareAndSwap(false, true) {
		return nil
	}

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to create app service: %w", err)
	}
	if err := appSvc.Start(); err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to start app service: %w", err)
	}
	log.Info("started app service")

	s.readinessSvc.MarkAppServiceStarted()
	s.healthSrv.SetServingStatus("", grpchealth.HealthCheckResponse_SERVING)
	s.healthSrv.SetServingStatus(marketv1.MarketServiceName, grpchealth.HealthCheckResponse_SERVING)

	log.Info("market service is now ready")
	return nil
}

func (s *service) newServer(tlsConfig *tls.Config) error {
	ctx := context.Background()
	if s.appConfig.OtelCollectorEndpoint != "" {
		pushInterval := time.Duration(s.appConfig.OtelPushInterval) * time.Second
		otelShutdown, err := telemetry.InitOtelSDK(
			ctx, s.appConfig.OtelCollectorEndpoint, pushInterval,
		)
		if err != nil {
			return err
		}
		s.otelShutdown = otelShutdown
	}

	otelHandler := otelgrpc.NewServerHandler(
		otelgrpc.WithTracerProvider(otel.GetTracerProvider()),
	)

	s.readinessSvc = interceptors.NewReadinessService()
	verifier := interceptors.NewSignatureVerifier(
		s.appConfig.LiveStore().Nonces(), s.config.RequestMaxAge,
	)

	grpcConfig := []grpc.ServerOption{
		interceptors.UnaryInterceptor(s.macaroonSvc, s.readinessSvc, verifier),
		interceptors.StreamInterceptor(s.macaroonSvc, s.readinessSvc),
		grpc.StatsHandler(otelHandler),
	}
	if !s.config.insecure() {
		grpcConfig = append(grpcConfig, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}

	grpcServer := grpc.NewServer(grpcConfig...)

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return fmt.Errorf("failed to create app service: %w", err)
	}
	marketHandler := handlers.NewMarketServiceHandler(
		s.version, appSvc, s.config.HeartbeatInterval,
	)
	adminHandler := handlers.NewAdminHandler(appSvc)
	s.healthSrv = health.NewServer()
	s.healthSrv.SetServingStatus("", grpchealth.HealthCheckResponse_NOT_SERVING)

	marketv1.RegisterMarketServiceServer(grpcServer, marketHandler)
	marketv1.RegisterAdminServiceServer(grpcServer, adminHandler)
	grpchealth.RegisterHealthServer(grpcServer, s.healthSrv)

	restGateway := newRestGateway(
		marketHandler, adminHandler, s.healthSrv,
		interceptors.UnaryChain(s.macaroonSvc, s.readinessSvc, verifier),
	)
	handler := router(grpcServer, restGateway)
	mux := http.NewServeMux()
	mux.Handle("/", handler)

	httpServerHandler := http.Handler(mux)
	if s.config.insecure() {
		httpServerHandler = h2c.NewHandler(httpServerHandler, &http2.Server{})
	}

	s.grpcServer = grpcServer
	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           httpServerHandler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func router(grpcServer *grpc.Server, restGateway http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOptionRequest(r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			return
		}

		if isHttpRequest(r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

			restGateway.ServeHTTP(w, r)
			return
		}
		grpcServer.ServeHTTP(w, r)
	})
}

func isOptionRequest(req *http.Request) bool {
	return req.Method == http.MethodOptions
}

func isHttpRequest(req *http.Request) bool {
	return req.Method == http.MethodGet ||
		strings.Contains(req.Header.Get("Content-Type"), "application/json")
}
