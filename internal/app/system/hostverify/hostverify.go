// Package hostverify controls TLS host name verification for outbound
// connections made by this process.
//
// Verification is strict unless an operator sets the disable flag. When
// relaxed, peers must still present a certificate chain that verifies
// against the trusted roots; only the match between the certificate and
// the dialed host name is skipped. That is what an internal deployment
// with certificates issued for a different name needs, and nothing more.
package hostverify

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultEnvPrefix is used when no environment prefix is given.
const DefaultEnvPrefix = "SKILLS"

// EnvName returns the environment variable holding the disable flag for an
// application prefix, e.g. SKILLS_EXAMPLE_DISABLE_HOSTNAME_VERIFIER. It is
// the variable WAFFLE fills from the disable_hostname_verifier key.
func EnvName(prefix string) string {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return prefix + "_DISABLE_HOSTNAME_VERIFIER"
}

var relaxed atomic.Bool

// Enabled reports whether the disable flag for prefix is set in the
// environment read through getenv. Unset or unparsable values count as
// false.
func Enabled(prefix string, getenv func(string) string) bool {
	if getenv == nil {
		getenv = os.Getenv
	}
	return ParseFlag(getenv(EnvName(prefix)))
}

// ParseFlag parses a boolean flag value. Anything strconv.ParseBool rejects
// is false.
func ParseFlag(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Disable switches the process to relaxed host name verification and
// installs the relaxed config on http.DefaultTransport. Calling it more
// than once is harmless.
func Disable(logger *zap.Logger) {
	if relaxed.Swap(true) {
		return
	}
	logger.Info("disabling hostname verification")

	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		Apply(t, nil)
	} else {
		logger.Warn("default transport is not *http.Transport; hostname verification unchanged for it")
	}
}

// Disabled reports whether Disable has been called.
func Disabled() bool {
	return relaxed.Load()
}

// ClientTLSConfig returns a new TLS config for outbound clients. It is
// strict unless the process has been relaxed with Disable.
func ClientTLSConfig() *tls.Config {
	if Disabled() {
		return RelaxedConfig(nil)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// Apply installs a relaxed TLS config on t, verifying chains against
// roots. A nil roots keeps the transport's own RootCAs, or the system pool
// if it has none. Existing TLS settings other than verification are kept.
func Apply(t *http.Transport, roots *x509.CertPool) {
	if roots == nil && t.TLSClientConfig != nil {
		roots = t.TLSClientConfig.RootCAs
	}
	cfg := RelaxedConfig(roots)
	if t.TLSClientConfig != nil {
		prev := t.TLSClientConfig.Clone()
		prev.InsecureSkipVerify = cfg.InsecureSkipVerify
		prev.VerifyConnection = cfg.VerifyConnection
		if prev.MinVersion == 0 {
			prev.MinVersion = cfg.MinVersion
		}
		cfg = prev
	}
	t.TLSClientConfig = cfg
}

// RelaxedConfig returns a TLS config that verifies the peer chain against
// roots but not the host name.
func RelaxedConfig(roots *x509.CertPool) *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		// The standard verifier is replaced, not switched off:
		// VerifyConnection runs the chain check below.
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return verifyChain(cs, roots)
		},
	}
}

var errNoPeerCertificates = errors.New("hostverify: peer presented no certificates")

func verifyChain(cs tls.ConnectionState, roots *x509.CertPool) error {
	if len(cs.PeerCertificates) == 0 {
		return errNoPeerCertificates
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	for _, c := range cs.PeerCertificates[1:] {
		opts.Intermediates.AddCert(c)
	}

	_, err := cs.PeerCertificates[0].Verify(opts)
	return err
}

// reset returns the package to strict mode. Tests only.
func reset() {
	relaxed.Store(false)
}
