package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arkade-os/marketd/internal/config"
	grpcservice "github.com/arkade-os/marketd/internal/interface/grpc"
	"github.com/arkade-os/marketd/internal/telemetry"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

func main() {
	// Optional .env file in the working dir, env vars already set win.
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Version = Version
	app.Name = "marketd"
	app.Usage = "run or manage the service marketplace"
	app.Flags = config.Flags
	app.Action = mainAction
	app.Commands = cli.Commands{
		keygenCmd,
		infoCmd,
		initMarketplaceCmd,
		listServiceCmd,
		buyServiceCmd,
		servicesCmd,
		assetCmd,
		transferAssetCmd,
		transferFundsCmd,
		balanceCmd,
		historyCmd,
		airdropCmd,
		subscribeCmd,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func mainAction(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	if cfg.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if cfg.OtelCollectorEndpoint != "" {
		log.AddHook(telemetry.NewOTelHook())
	}

	svcConfig := grpcservice.Config{
		Datadir:           cfg.Datadir,
		Port:              cfg.Port,
		NoTLS:             cfg.NoTLS,
		NoMacaroons:       cfg.NoMacaroons,
		TLSExtraIPs:       cfg.TLSExtraIPs,
		TLSExtraDomains:   cfg.TLSExtraDomains,
		HeartbeatInterval: cfg.HeartbeatInterval,
		RequestMaxAge:     cfg.RequestMaxAge,
	}

	svc, err := grpcservice.NewService(Version, svcConfig, cfg)
	if err != nil {
		return err
	}

	log.Infof("marketd config: %s", cfg)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	log.RegisterExitHandler(svc.Stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}
