package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc/metadata"
)

var (
	keygenCmd = &cli.Command{
		Name:   "keygen",
		Usage:  "Generate a new keypair",
		Action: keygenAction,
	}
	infoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get info about the market program",
		Flags:  connFlags,
		Action: infoAction,
	}
	initMarketplaceCmd = &cli.Command{
		Name:   "init-marketplace",
		Usage:  "Initialize a marketplace administered by the signer",
		Flags:  append([]cli.Flag{keyFlag, seedFlag, validForFlag}, connFlags...),
		Action: initMarketplaceAction,
	}
	listServiceCmd = &cli.Command{
		Name:  "list-service",
		Usage: "List a service in a marketplace, minting its asset",
		Flags: append([]cli.Flag{
			keyFlag, assetKeyFlag, marketplaceFlag, nameFlag, uriFlag, priceFlag,
			soulboundFlag, royaltyFlag, hoursFlag, termsFlag, validForFlag,
		}, connFlags...),
		Action: listServiceAction,
	}
	buyServiceCmd = &cli.Command{
		Name:  "buy-service",
		Usage: "Buy a listed service",
		Flags: append(
			[]cli.Flag{keyFlag, serviceFlag, assetFlag, validForFlag}, connFlags...,
		),
		Action: buyServiceAction,
	}
	servicesCmd = &cli.Command{
		Name:   "services",
		Usage:  "List the services of a marketplace",
		Flags:  append([]cli.Flag{marketplaceFlag}, connFlags...),
		Action: servicesAction,
	}
	assetCmd = &cli.Command{
		Name:   "asset",
		Usage:  "Get an asset",
		Flags:  append([]cli.Flag{assetFlag}, connFlags...),
		Action: assetAction,
	}
	transferAssetCmd = &cli.Command{
		Name:  "transfer-asset",
		Usage: "Transfer an asset as its owner or delegate",
		Flags: append(
			[]cli.Flag{keyFlag, assetFlag, toFlag, validForFlag}, connFlags...,
		),
		Action: transferAssetAction,
	}
	transferFundsCmd = &cli.Command{
		Name:  "transfer",
		Usage: "Transfer funds to another account",
		Flags: append(
			[]cli.Flag{keyFlag, toFlag, amountFlag, validForFlag}, connFlags...,
		),
		Action: transferFundsAction,
	}
	balanceCmd = &cli.Command{
		Name:   "balance",
		Usage:  "Get the balance of an account",
		Flags:  append([]cli.Flag{addressFlag}, connFlags...),
		Action: balanceAction,
	}
	historyCmd = &cli.Command{
		Name:   "history",
		Usage:  "Get the events touching an account",
		Flags:  append([]cli.Flag{addressFlag}, connFlags...),
		Action: historyAction,
	}
	airdropCmd = &cli.Command{
		Name:   "airdrop",
		Usage:  "Fund an account out of thin air (admin only)",
		Flags:  append([]cli.Flag{addressFlag, amountFlag}, connFlags...),
		Action: airdropAction,
	}
	subscribeCmd = &cli.Command{
		Name:  "subscribe",
		Usage: "Stream market events, optionally filtered by address",
		Flags: []cli.Flag{
			rpcAddrFlag, datadirFlag, macaroonFlag,
			&cli.StringSliceFlag{Name: addressFlagName, Usage: "addresses to filter by"},
			&cli.BoolFlag{Name: "no-tls", Usage: "connect without TLS", Value: true},
		},
		Action: subscribeAction,
	}
)

func keygenAction(ctx *cli.Context) error {
	key, err := marketlib.GenerateKeyPair()
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, map[string]string{
		"address": key.Address().String(),
		"key":     key.String(),
	})
}

func infoAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/info", ctx.String(urlFlagName))
	resp, err := get[marketv1.GetInfoResponse](url, "", macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, resp)
}

func initMarketplaceAction(ctx *cli.Context) error {
	key, err := getKey(ctx, keyFlagName)
	if err != nil {
		return err
	}
	req := &marketv1.InitializeMarketplaceRequest{
		Admin:      key.Address().String(),
		Seed:       ctx.Uint64(seedFlagName),
		ValidUntil: validUntil(ctx),
	}
	if err := marketv1.Sign(
		marketv1.MarketService_InitializeMarketplace_FullMethodName, req, key,
	); err != nil {
		return err
	}
	return postAndPrint[marketv1.Marketplace](ctx, "/v1/marketplaces", req, "marketplace")
}

func listServiceAction(ctx *cli.Context) error {
	key, err := getKey(ctx, keyFlagName)
	if err != nil {
		return err
	}
	assetKey, err := getAssetKey(ctx)
	if err != nil {
		return err
	}
	price, err := parseSol(ctx.String(priceFlagName))
	if err != nil {
		return err
	}

	req := &marketv1.ListServiceRequest{
		Creator:            key.Address().String(),
		Marketplace:        ctx.String(marketplaceFlagName),
		Asset:              assetKey.Address().String(),
		Name:               ctx.String(nameFlagName),
		Uri:                ctx.String(uriFlagName),
		Price:              price,
		Soulbound:          ctx.Bool(soulboundFlagName),
		RoyaltyBasisPoints: uint32(ctx.Uint(royaltyFlagName)),
		Hours:              ctx.String(hoursFlagName),
		Terms:              ctx.String(termsFlagName),
		ValidUntil:         validUntil(ctx),
	}
	if err := marketv1.Sign(
		marketv1.MarketService_ListService_FullMethodName, req, key, assetKey,
	); err != nil {
		return err
	}
	return postAndPrint[marketv1.ListServiceResponse](ctx, "/v1/services", req, "")
}

func buyServiceAction(ctx *cli.Context) error {
	key, err := getKey(ctx, keyFlagName)
	if err != nil {
		return err
	}
	req := &marketv1.BuyServiceRequest{
		Buyer:      key.Address().String(),
		Service:    ctx.String(serviceFlagName),
		Asset:      ctx.String(assetFlagName),
		ValidUntil: validUntil(ctx),
	}
	if err := marketv1.Sign(
		marketv1.MarketService_BuyService_FullMethodName, req, key,
	); err != nil {
		return err
	}
	return postAndPrint[marketv1.Receipt](ctx, "/v1/purchases", req, "receipt")
}

func servicesAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	url := fmt.Sprintf(
		"%s/v1/marketplaces/%s/services",
		ctx.String(urlFlagName), ctx.String(marketplaceFlagName),
	)
	services, err := get[[]marketv1.Service](url, "services", macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, services)
}

func assetAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/assets/%s", ctx.String(urlFlagName), ctx.String(assetFlagName))
	asset, err := get[marketv1.Asset](url, "asset", macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, asset)
}

func transferAssetAction(ctx *cli.Context) error {
	key, err := getKey(ctx, keyFlagName)
	if err != nil {
		return err
	}
	req := &marketv1.TransferAssetRequest{
		Authority:  key.Address().String(),
		Asset:      ctx.String(assetFlagName),
		NewOwner:   ctx.String(toFlagName),
		ValidUntil: validUntil(ctx),
	}
	if err := marketv1.Sign(
		marketv1.MarketService_TransferAsset_FullMethodName, req, key,
	); err != nil {
		return err
	}
	return postAndPrint[marketv1.Asset](ctx, "/v1/assets/transfer", req, "asset")
}

func transferFundsAction(ctx *cli.Context) error {
	key, err := getKey(ctx, keyFlagName)
	if err != nil {
		return err
	}
	amount, err := parseSol(ctx.String(amountFlagName))
	if err != nil {
		return err
	}
	req := &marketv1.TransferFundsRequest{
		From:       key.Address().String(),
		To:         ctx.String(toFlagName),
		Amount:     amount,
		ValidUntil: validUntil(ctx),
	}
	if err := marketv1.Sign(
		marketv1.MarketService_TransferFunds_FullMethodName, req, key,
	); err != nil {
		return err
	}
	return postAndPrint[marketv1.TransferFundsResponse](ctx, "/v1/funds/transfer", req, "")
}

func balanceAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	url := fmt.Sprintf(
		"%s/v1/accounts/%s/balance", ctx.String(urlFlagName), ctx.String(addressFlagName),
	)
	balance, err := getUint64(url, "balance", macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, map[string]string{
		"lamports": fmt.Sprintf("%d", balance),
		"sol":      formatSol(balance),
	})
}

func historyAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	url := fmt.Sprintf(
		"%s/v1/accounts/%s/history", ctx.String(urlFlagName), ctx.String(addressFlagName),
	)
	events, err := get[[]marketv1.Event](url, "events", macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, events)
}

func airdropAction(ctx *cli.Context) error {
	amount, err := parseSol(ctx.String(amountFlagName))
	if err != nil {
		return err
	}
	req := &marketv1.AirdropRequest{
		Address: ctx.String(addressFlagName),
		Amount:  amount,
	}
	return postAndPrint[marketv1.AirdropResponse](ctx, "/v1/admin/airdrop", req, "")
}

func subscribeAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool("no-tls") {
		tlsConfig = nil
	}

	conn, err := dial(ctx.String(rpcAddrFlagName), tlsConfig)
	if err != nil {
		return err
	}
	// nolint
	defer conn.Close()

	reqCtx := ctx.Context
	if macaroon != "" {
		reqCtx = metadata.AppendToOutgoingContext(reqCtx, "macaroon", macaroon)
	}

	client := marketv1.NewMarketServiceClient(conn)
	stream, err := client.SubscribeEvents(reqCtx, &marketv1.SubscribeEventsRequest{
		Addresses: ctx.StringSlice(addressFlagName),
	})
	if err != nil {
		return err
	}

	for {
		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if resp.Event == nil {
			continue
		}
		if err := printJSON(ctx.App.Writer, resp.Event); err != nil {
			return err
		}
	}
}

func postAndPrint[T any](ctx *cli.Context, path string, req any, key string) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s%s", ctx.String(urlFlagName), path)
	resp, err := post[T](url, string(body), key, macaroon, tlsConfig)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, resp)
}

func validUntil(ctx *cli.Context) int64 {
	return time.Now().Add(ctx.Duration(validForFlagName)).Unix()
}

func printJSON(w io.Writer, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}
