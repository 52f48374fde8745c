package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

const (
	defaultLDAPPort  = "389"
	defaultLDAPSPort = "636"
)

// DialConfig holds the connection settings for the live directory.
type DialConfig struct {
	URL            string
	UseTLS         bool
	ClientKey      string // PEM
	ClientCert     string // PEM
	CACerts        string // PEM bundle
	Retries        int
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// NewDialer returns a DialFunc for cfg. TLS material is parsed once, up
// front, so a bad key or certificate fails at startup.
func NewDialer(cfg DialConfig, logger zerolog.Logger) (DialFunc, error) {
	addr, err := normaliseURL(cfg.URL, cfg.UseTLS)
	if err != nil {
		return nil, err
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: cfg.ConnectTimeout})}
	if cfg.UseTLS {
		tlsCfg, err := tlsConfig(cfg, addr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ldap.DialWithTLSConfig(tlsCfg))
	}

	attempts := cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	return func(ctx context.Context) (Conn, error) {
		var lastErr error
		for i := 1; i <= attempts; i++ {
			conn, err := ldap.DialURL(addr, opts...)
			if err == nil {
				if cfg.RequestTimeout > 0 {
					conn.SetTimeout(cfg.RequestTimeout)
				}
				logger.Info().Str("url", addr).Int("attempt", i).Msg("connected to directory")
				return conn, nil
			}
			lastErr = err
			logger.Warn().Err(err).Str("url", addr).Int("attempt", i).Int("attempts", attempts).Msg("directory connection failed")
			if ctx.Err() != nil {
				break
			}
		}
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", addr, attempts, lastErr)
	}, nil
}

// normaliseURL accepts "host", "host:port" or a full ldap(s):// URL and
// returns a URL whose scheme matches useTLS and which carries a port.
func normaliseURL(raw string, useTLS bool) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("LDAP URL must be specified")
	}
	if !strings.Contains(raw, "://") {
		raw = "ldap://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse LDAP URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("LDAP URL %q has no host", raw)
	}

	scheme, port := "ldap", defaultLDAPPort
	if useTLS {
		scheme, port = "ldaps", defaultLDAPSPort
	}
	if p := u.Port(); p != "" {
		port = p
	}
	return scheme + "://" + net.JoinHostPort(u.Hostname(), port), nil
}

func tlsConfig(cfg DialConfig, addr string) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(cfg.ClientCert), []byte(cfg.ClientKey))
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(cfg.CACerts)) {
		return nil, fmt.Errorf("no CA certificates found in CA_CERTS")
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   u.Hostname(),
		MinVersion:   tls.VersionTLS12,
	}, nil
}
