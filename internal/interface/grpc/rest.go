package grpcservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	marketerrors "github.com/arkade-os/marketd/pkg/errors"
	"github.com/gorilla/mux"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	macaroonHeader = "X-Macaroon"
	maxBodySize    = 1 << 20
)

// newRestGateway exposes the unary rpcs as JSON over HTTP. Requests go
// through the same interceptors of the grpc server.
func newRestGateway(
	market marketv1.MarketServiceServer, admin marketv1.AdminServiceServer,
	health grpchealth.HealthServer, interceptor grpc.UnaryServerInterceptor,
) http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.Handle("/info", route(
		interceptor, marketv1.MarketService_GetInfo_FullMethodName, nil, market.GetInfo,
	)).Methods(http.MethodGet)
	v1.Handle("/marketplaces", route(
		interceptor, marketv1.MarketService_InitializeMarketplace_FullMethodName,
		nil, market.InitializeMarketplace,
	)).Methods(http.MethodPost)
	v1.Handle("/marketplaces/{address}", route(
		interceptor, marketv1.MarketService_GetMarketplace_FullMethodName,
		func(vars map[string]string, req *marketv1.GetMarketplaceRequest) {
			req.Address = vars["address"]
		},
		market.GetMarketplace,
	)).Methods(http.MethodGet)
	v1.Handle("/marketplaces/{address}/services", route(
		interceptor, marketv1.MarketService_ListServices_FullMethodName,
		func(vars map[string]string, req *marketv1.ListServicesRequest) {
			req.Marketplace = vars["address"]
		},
		market.ListServices,
	)).Methods(http.MethodGet)
	v1.Handle("/services", route(
		interceptor, marketv1.MarketService_ListService_FullMethodName, nil, market.ListService,
	)).Methods(http.MethodPost)
	v1.Handle("/services/{address}", route(
		interceptor, marketv1.MarketService_GetService_FullMethodName,
		func(vars map[string]string, req *marketv1.GetServiceRequest) {
			req.Address = vars["address"]
		},
		market.GetService,
	)).Methods(http.MethodGet)
	v1.Handle("/purchases", route(
		interceptor, marketv1.MarketService_BuyService_FullMethodName, nil, market.BuyService,
	)).Methods(http.MethodPost)
	v1.Handle("/assets/{address}", route(
		interceptor, marketv1.MarketService_GetAsset_FullMethodName,
		func(vars map[string]string, req *marketv1.GetAssetRequest) {
			req.Address = vars["address"]
		},
		market.GetAsset,
	)).Methods(http.MethodGet)
	v1.Handle("/assets/transfer", route(
		interceptor, marketv1.MarketService_TransferAsset_FullMethodName,
		nil, market.TransferAsset,
	)).Methods(http.MethodPost)
	v1.Handle("/funds/transfer", route(
		interceptor, marketv1.MarketService_TransferFunds_FullMethodName,
		nil, market.TransferFunds,
	)).Methods(http.MethodPost)
	v1.Handle("/accounts/{address}/balance", route(
		interceptor, marketv1.MarketService_GetBalance_FullMethodName,
		func(vars map[string]string, req *marketv1.GetBalanceRequest) {
			req.Address = vars["address"]
		},
		market.GetBalance,
	)).Methods(http.MethodGet)
	v1.Handle("/accounts/{address}/history", route(
		interceptor, marketv1.MarketService_GetHistory_FullMethodName,
		func(vars map[string]string, req *marketv1.GetHistoryRequest) {
			req.Address = vars["address"]
		},
		market.GetHistory,
	)).Methods(http.MethodGet)
	v1.Handle("/admin/airdrop", route(
		interceptor, marketv1.AdminService_Airdrop_FullMethodName, nil, admin.Airdrop,
	)).Methods(http.MethodPost)

	r.Handle("/healthz", route(
		interceptor, grpchealth.Health_Check_FullMethodName, nil, health.Check,
	)).Methods(http.MethodGet)

	return r
}

// route decodes the JSON body, if any, and the path variables into the
// request and runs call behind the interceptors.
func route[Req, Resp any](
	interceptor grpc.UnaryServerInterceptor, fullMethod string,
	fromVars func(map[string]string, *Req),
	call func(context.Context, *Req) (*Resp, error),
) http.Handler {
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return call(ctx, req.(*Req))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if r.Method == http.MethodPost {
			body := http.MaxBytesReader(w, r.Body, maxBodySize)
			if err := json.NewDecoder(body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, marketerrors.INVALID_ARGUMENT.New("invalid request body: %s", err))
				return
			}
		}
		if fromVars != nil {
			fromVars(mux.Vars(r), req)
		}

		ctx := r.Context()
		if mac := r.Header.Get(macaroonHeader); mac != "" {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("macaroon", mac))
		}

		resp, err := interceptor(ctx, req, info, handler)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	details := marketv1.ErrorDetails{
		Name:    st.Code().String(),
		Message: st.Message(),
	}
	var structuredErr marketerrors.Error
	if errors.As(err, &structuredErr) {
		details = marketv1.ErrorDetails{
			Code:     int32(structuredErr.Code()),
			Name:     structuredErr.CodeName(),
			Message:  structuredErr.Message(),
			Metadata: structuredErr.Metadata(),
		}
	} else if st.Code() == codes.Unknown {
		details.Name = marketerrors.INTERNAL_ERROR.Name
	}
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), details)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}
