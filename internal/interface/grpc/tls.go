package grpcservice

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	tlsCertValidity = 14 * 30 * 24 * time.Hour
	tlsOrganization = "marketd autogenerated cert"
)

// generateOperatorTLSKeyCert creates a self-signed cert and its key in
// datadir, unless they already exist.
func generateOperatorTLSKeyCert(datadir string, extraIPs, extraDomains []string) error {
	keyPath := filepath.Join(datadir, tlsKeyFile)
	certPath := filepath.Join(datadir, tlsCertFile)
	if pathExists(keyPath) && pathExists(certPath) {
		return nil
	}
	if err := os.MkdirAll(datadir, 0755); err != nil {
		return err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}

	host, _ := os.Hostname()
	dnsNames := []string{"localhost"}
	if host != "" && host != "localhost" {
		dnsNames = append(dnsNames, host)
	}
	dnsNames = append(dnsNames, extraDomains...)

	ips := []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}
	for _, ip := range extraIPs {
		if parsed := net.ParseIP(ip); parsed != nil {
			ips = append(ips, parsed)
		}
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{tlsOrganization},
			CommonName:   "localhost",
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(tlsCertValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ips,
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	certPem := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certBytes})
	keyPem := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})
	if err := os.WriteFile(certPath, certPem, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, keyPem, 0600); err != nil {
		// nolint:all
		os.Remove(certPath)
		return err
	}
	return nil
}
