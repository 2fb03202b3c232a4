package main

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/macaroon.v2"
)

// lamportsPerSol is the number of decimals of the native currency.
const lamportsPerSol = 9

func getKey(ctx *cli.Context, flagName string) (*marketlib.KeyPair, error) {
	key := ctx.String(flagName)
	if key == "" {
		key = viper.GetString(flagName)
	}
	if key == "" {
		return nil, fmt.Errorf("missing signing key, use --%s or the env var", flagName)
	}
	return marketlib.ParseKeyPair(key)
}

func getAssetKey(ctx *cli.Context) (*marketlib.KeyPair, error) {
	if ctx.String(assetKeyFlagName) == "" {
		return marketlib.GenerateKeyPair()
	}
	return getKey(ctx, assetKeyFlagName)
}

// parseSol converts an amount in SOL to lamports. Amounts with more
// decimals than a lamport are rejected.
func parseSol(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %s: %s", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %s: must be positive", amount)
	}
	lamports := d.Shift(lamportsPerSol)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %s: too many decimals", amount)
	}
	n := lamports.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("invalid amount %s: out of range", amount)
	}
	return n.Uint64(), nil
}

func formatSol(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -lamportsPerSol).String()
}

func dial(addr string, tlsConfig *tls.Config) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if tlsConfig != nil {
		creds = credentials.NewTLS(tlsConfig)
	}
	return grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
}

func getCredentials(ctx *cli.Context) (macaroon string, tlsConfig *tls.Config, err error) {
	var macaroonPath, tlsCertPath string
	if ctx.String(macaroonFlagName) != "" {
		macaroon = ctx.String(macaroonFlagName)
	} else {
		datadir := ctx.String(datadirFlagName)
		macaroonPath = filepath.Join(datadir, macaroonDir, macaroonFile)
		tlsCertPath = filepath.Join(datadir, tlsDir, tlsCertFile)
	}

	if _, err := os.Stat(macaroonPath); err == nil {
		macaroon, err = getMacaroon(macaroonPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read macaroon: %w", err)
		}
	}

	if strings.Contains(ctx.String(urlFlagName), "http://") {
		tlsCertPath = ""
	}

	if _, err := os.Stat(tlsCertPath); err == nil {
		tlsConfig, err = getTLSConfig(tlsCertPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to get tls config: %s", err)
		}
	}

	return
}

func post[T any](url, body, key, macaroon string, tlsConfig *tls.Config) (result T, err error) {
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")
	if len(macaroon) > 0 {
		req.Header.Add("X-Macaroon", macaroon)
	}
	return do[T](req, key, tlsConfig)
}

func get[T any](url, key, macaroon string, tlsConfig *tls.Config) (result T, err error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")
	if len(macaroon) > 0 {
		req.Header.Add("X-Macaroon", macaroon)
	}
	return do[T](req, key, tlsConfig)
}

func do[T any](req *http.Request, key string, tlsConfig *tls.Config) (result T, err error) {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	// nolint
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("failed to %s: %s", strings.ToLower(req.Method), string(buf))
		return
	}
	if key == "" {
		var res T
		if err = json.Unmarshal(buf, &res); err != nil {
			return
		}
		result = res
		return
	}

	res := make(map[string]T)
	if err = json.Unmarshal(buf, &res); err != nil {
		return
	}
	result = res[key]
	return
}

func getUint64(url, key, macaroon string, tlsConfig *tls.Config) (uint64, error) {
	val, err := get[any](url, key, macaroon, tlsConfig)
	if err != nil {
		return 0, err
	}

	switch v := val.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid %s (must be >= 0)", key)
		}
		return uint64(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("missing %s in response", key)
	default:
		return 0, fmt.Errorf("invalid %s type %T", key, val)
	}
}

func getMacaroon(path string) (string, error) {
	macBytes, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read macaroon %s: %s", path, err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return "", fmt.Errorf("failed to parse macaroon %s: %s", path, err)
	}

	return hex.EncodeToString(macBytes), nil
}

func getTLSConfig(path string) (*tls.Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(buf); !ok {
		return nil, fmt.Errorf("failed to parse tls cert")
	}

	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    caCertPool,
	}, nil
}
