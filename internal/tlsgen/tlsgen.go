// Package tlsgen provisions the certificate and private key the listener
// serves TLS with, generating a self-signed pair when none exists.
package tlsgen

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrIncompletePair is returned when only one of the certificate and key
// files exists. Generating would overwrite the operator's file.
var ErrIncompletePair = errors.New("only one of certificate and key exists")

// Validity is the lifetime of generated certificates.
const Validity = 10 * 365 * 24 * time.Hour

// Generator writes a certificate/key pair to fixed paths.
type Generator struct {
	certPath string
	keyPath  string
	now      func() time.Time
}

// New creates a generator for the given certificate and key paths.
func New(certPath, keyPath string) *Generator {
	return &Generator{certPath: certPath, keyPath: keyPath, now: time.Now}
}

// CertPath returns the certificate path.
func (g *Generator) CertPath() string { return g.certPath }

// KeyPath returns the private key path.
func (g *Generator) KeyPath() string { return g.keyPath }

// Generate makes sure a usable pair exists on disk.
//
// If both files exist and load as a matching pair, nothing is written.
// If neither exists, a self-signed ECDSA P-256 certificate for identity is
// generated. Both files are written to a temporary name and renamed into
// place, so a reader never observes a partial file.
func (g *Generator) Generate(identity string) error {
	if g.certPath == "" || g.keyPath == "" {
		return errors.New("certificate and key paths are required")
	}

	certExists, err := exists(g.certPath)
	if err != nil {
		return err
	}
	keyExists, err := exists(g.keyPath)
	if err != nil {
		return err
	}

	switch {
	case certExists && keyExists:
		if _, err := tls.LoadX509KeyPair(g.certPath, g.keyPath); err != nil {
			return fmt.Errorf("existing certificate/key pair is invalid: %w", err)
		}
		return nil
	case certExists:
		return fmt.Errorf("%w: key %s is missing", ErrIncompletePair, g.keyPath)
	case keyExists:
		return fmt.Errorf("%w: certificate %s is missing", ErrIncompletePair, g.certPath)
	}

	certPEM, keyPEM, err := g.selfSigned(identity)
	if err != nil {
		return err
	}

	if err := writeAtomic(g.keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	if err := writeAtomic(g.certPath, certPEM, 0644); err != nil {
		_ = os.Remove(g.keyPath)
		return fmt.Errorf("write certificate: %w", err)
	}
	return nil
}

func (g *Generator) selfSigned(identity string) (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial: %w", err)
	}

	notBefore := g.now().Add(-time.Hour)
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   identity,
			Organization: []string{identity},
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal key: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
