package main

import (
	"fmt"
	"time"

	"github.com/arkade-os/marketd/internal/config"
	"github.com/urfave/cli/v2"
)

const (
	urlFlagName         = "url"
	rpcAddrFlagName     = "rpc-addr"
	datadirFlagName     = "datadir"
	macaroonFlagName    = "macaroon"
	keyFlagName         = "key"
	assetKeyFlagName    = "asset-key"
	seedFlagName        = "seed"
	marketplaceFlagName = "marketplace"
	serviceFlagName     = "service"
	assetFlagName       = "asset"
	addressFlagName     = "address"
	toFlagName          = "to"
	amountFlagName      = "amount"
	nameFlagName        = "name"
	uriFlagName         = "uri"
	priceFlagName       = "price"
	soulboundFlagName   = "soulbound"
	royaltyFlagName     = "royalty-bps"
	hoursFlagName       = "hours"
	termsFlagName       = "terms"
	validForFlagName    = "valid-for"

	macaroonDir  = "macaroons"
	macaroonFile = "admin.macaroon"
	tlsDir       = "tls"
	tlsCertFile  = "cert.pem"

	timeout = 15 * time.Second
)

var (
	urlFlag = &cli.StringFlag{
		Name:  urlFlagName,
		Usage: "the url where to reach the marketd REST api",
		Value: fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort),
	}
	rpcAddrFlag = &cli.StringFlag{
		Name:  rpcAddrFlagName,
		Usage: "the host:port where to reach the marketd gRPC api",
		Value: fmt.Sprintf("127.0.0.1:%d", config.DefaultPort),
	}
	datadirFlag = &cli.StringFlag{
		Name:  datadirFlagName,
		Usage: "marketd datadir from where to source TLS cert and macaroon if needed",
		Value: config.DefaultDatadir,
	}
	macaroonFlag = &cli.StringFlag{
		Name:  macaroonFlagName,
		Usage: "macaroon in hex format used for authenticated requests",
	}
	keyFlag = &cli.StringFlag{
		Name:  keyFlagName,
		Usage: "base58 secret key of the signer, defaults to MARKETD_KEY env var",
	}
	assetKeyFlag = &cli.StringFlag{
		Name:  assetKeyFlagName,
		Usage: "base58 secret key of the asset to mint, a fresh one is generated if missing",
	}
	seedFlag = &cli.Uint64Flag{
		Name:     seedFlagName,
		Usage:    "seed of the marketplace",
		Required: true,
	}
	marketplaceFlag = &cli.StringFlag{
		Name:     marketplaceFlagName,
		Usage:    "address of the marketplace",
		Required: true,
	}
	serviceFlag = &cli.StringFlag{
		Name:     serviceFlagName,
		Usage:    "address of the service listing",
		Required: true,
	}
	assetFlag = &cli.StringFlag{
		Name:     assetFlagName,
		Usage:    "address of the asset",
		Required: true,
	}
	addressFlag = &cli.StringFlag{
		Name:     addressFlagName,
		Usage:    "address of the account",
		Required: true,
	}
	toFlag = &cli.StringFlag{
		Name:     toFlagName,
		Usage:    "address of the recipient",
		Required: true,
	}
	amountFlag = &cli.StringFlag{
		Name:     amountFlagName,
		Usage:    "amount in SOL",
		Required: true,
	}
	nameFlag = &cli.StringFlag{
		Name:     nameFlagName,
		Usage:    "name of the service",
		Required: true,
	}
	uriFlag = &cli.StringFlag{
		Name:     uriFlagName,
		Usage:    "uri of the service metadata",
		Required: true,
	}
	priceFlag = &cli.StringFlag{
		Name:     priceFlagName,
		Usage:    "price of the service in SOL",
		Required: true,
	}
	soulboundFlag = &cli.BoolFlag{
		Name:  soulboundFlagName,
		Usage: "lock the asset to the first buyer",
	}
	royaltyFlag = &cli.UintFlag{
		Name:  royaltyFlagName,
		Usage: "royalty basis points paid to the creator on secondary sales",
	}
	hoursFlag = &cli.StringFlag{
		Name:  hoursFlagName,
		Usage: "service hours attribute",
	}
	termsFlag = &cli.StringFlag{
		Name:  termsFlagName,
		Usage: "service terms attribute",
	}
	validForFlag = &cli.DurationFlag{
		Name:  validForFlagName,
		Usage: "how long the signed request stays valid",
		Value: time.Minute,
	}

	connFlags = []cli.Flag{urlFlag, datadirFlag, macaroonFlag}
)
