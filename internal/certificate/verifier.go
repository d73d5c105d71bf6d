// Package certificate decides whether a server's TLS certificate is trusted,
// asking the user about certificates the system rejects and remembering the answer.
package certificate

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/matt0x6f/rocketchat-desktop/internal/events"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	"github.com/matt0x6f/rocketchat-desktop/internal/storage"
)

// Store persists certificates the user accepted
type Store interface {
	GetTrustedCertificate(host string) (*storage.TrustedCertificate, error)
	TrustCertificate(cert *storage.TrustedCertificate) error
}

// Prompter asks the user whether to trust a certificate the system rejected
type Prompter interface {
	ConfirmCertificate(host string, cert *x509.Certificate, reason error) bool
}

// UntrustedError reports a certificate that neither the system nor the user trusts
type UntrustedError struct {
	Host        string
	Fingerprint string
	Err         error
}

func (e *UntrustedError) Error() string {
	return fmt.Sprintf("certificate for %s (%s) is not trusted: %v", e.Host, e.Fingerprint, e.Err)
}

func (e *UntrustedError) Unwrap() error {
	return e.Err
}

// Verifier checks certificate chains for server hosts
type Verifier struct {
	// Roots overrides the system root pool when set
	Roots *x509.CertPool

	store    Store
	prompter Prompter
	eventBus *events.EventBus

	// one dialog at a time
	promptMu sync.Mutex
}

// NewVerifier creates a verifier. prompter may be nil, in which case
// certificates the system rejects are only accepted when already trusted.
func NewVerifier(store Store, prompter Prompter, eventBus *events.EventBus) *Verifier {
	return &Verifier{
		store:    store,
		prompter: prompter,
		eventBus: eventBus,
	}
}

// Fingerprint returns the SHA-256 fingerprint of cert in lowercase hex
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// Verify accepts rawCerts (leaf first) for host when the system trusts the chain,
// when the leaf was trusted before, or when the user accepts it now.
func (v *Verifier) Verify(host string, rawCerts [][]byte) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("no certificates presented by %s", host)
	}

	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return fmt.Errorf("failed to parse certificate from %s: %w", host, err)
		}
		certs = append(certs, cert)
	}
	leaf := certs[0]

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         v.Roots,
		Intermediates: intermediates,
	})
	if verifyErr == nil {
		return nil
	}

	fingerprint := Fingerprint(leaf)
	trusted, err := v.store.GetTrustedCertificate(host)
	switch {
	case err == nil && trusted.Fingerprint == fingerprint:
		return nil
	case err == nil:
		logger.Log.Warn().Str("host", host).Str("fingerprint", fingerprint).Msg("Certificate changed since it was trusted")
	case !errors.Is(err, storage.ErrNotFound):
		logger.Log.Error().Err(err).Str("host", host).Msg("Failed to look up trusted certificate")
	}

	untrusted := &UntrustedError{Host: host, Fingerprint: fingerprint, Err: verifyErr}
	if !v.confirm(host, leaf, verifyErr) {
		v.eventBus.EmitSync(events.NewEvent(events.EventCertificateError, events.EventSourceSystem, map[string]interface{}{
			"host":        host,
			"fingerprint": fingerprint,
			"error":       verifyErr.Error(),
		}))
		return untrusted
	}

	if err := v.store.TrustCertificate(&storage.TrustedCertificate{
		Host:        host,
		Fingerprint: fingerprint,
		Subject:     leaf.Subject.String(),
		Issuer:      leaf.Issuer.String(),
	}); err != nil {
		logger.Log.Error().Err(err).Str("host", host).Msg("Failed to store trusted certificate")
	}
	logger.Log.Info().Str("host", host).Str("fingerprint", fingerprint).Msg("Certificate trusted by user")
	v.eventBus.EmitSync(events.NewEvent(events.EventCertificateTrusted, events.EventSourceUI, map[string]interface{}{
		"host":        host,
		"fingerprint": fingerprint,
	}))
	return nil
}

func (v *Verifier) confirm(host string, cert *x509.Certificate, reason error) bool {
	if v.prompter == nil {
		return false
	}

	v.promptMu.Lock()
	defer v.promptMu.Unlock()

	// another prompt may have accepted this certificate while we waited
	if trusted, err := v.store.GetTrustedCertificate(host); err == nil && trusted.Fingerprint == Fingerprint(cert) {
		return true
	}
	return v.prompter.ConfirmCertificate(host, cert, reason)
}

// TLSConfig returns a client configuration that verifies host through v
func (v *Verifier) TLSConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName: host,
		// verification is done in VerifyPeerCertificate so rejected chains can be confirmed by the user
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			return v.Verify(host, rawCerts)
		},
	}
}

// Check performs a TLS handshake with an https origin so that its certificate
// goes through Verify before the UI loads it. http origins are skipped.
func (v *Verifier) Check(ctx context.Context, origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("failed to parse origin: %w", err)
	}
	if u.Scheme != "https" {
		return nil
	}

	port := u.Port()
	if port == "" {
		port = "443"
	}
	dialer := &tls.Dialer{Config: v.TLSConfig(u.Hostname())}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return fmt.Errorf("TLS handshake with %s failed: %w", u.Host, err)
	}
	return conn.Close()
}
