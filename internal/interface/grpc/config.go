package grpcservice

import (
	"crypto/tls"
	"fmt"
	"net"
	"path/filepath"
	"time"
)

type Config struct {
	Datadir           string
	Port              uint32
	NoTLS             bool
	NoMacaroons       bool
	TLSExtraIPs       []string
	TLSExtraDomains   []string
	HeartbeatInterval time.Duration
	RequestMaxAge     time.Duration
}

func (c Config) Validate() error {
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	lis.Close()

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval")
	}
	if c.RequestMaxAge <= 0 {
		return fmt.Errorf("invalid request max age")
	}
	if !c.insecure() {
		if err := validateTLSExtraIPs(c.TLSExtraIPs); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) insecure() bool {
	return c.NoTLS
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) macaroonsDatadir() string {
	return filepath.Join(c.Datadir, macaroonsFolder)
}

func (c Config) tlsDatadir() string {
	return filepath.Join(c.Datadir, tlsFolder)
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.insecure() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(
		filepath.Join(c.tlsDatadir(), tlsCertFile), filepath.Join(c.tlsDatadir(), tlsKeyFile),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tls key pair: %s", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
	}, nil
}

func validateTLSExtraIPs(ips []string) error {
	for _, ip := range ips {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid tls extra ip %s", ip)
		}
	}
	return nil
}
