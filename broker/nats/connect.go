package nats

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	natsclient "github.com/nats-io/nats.go"
)

const clientName = "xwait"

// ConnArguments holds parameters for establishing a NATS connection.
type ConnArguments struct {
	Server   string
	User     string
	Password string
	TLS      TLSConfig
	Timeout  time.Duration // dial timeout, 0 = nats.go default
}

// TLSConfig holds TLS parameters for NATS connections.
type TLSConfig struct {
	Enabled    bool
	CACert     string
	ClientCert string
	ClientKey  string
	Insecure   bool
}

// Connect creates and returns a NATS connection. The connection only uses
// the servers in args.Server for the initial dial and does not reconnect,
// so a probe stays pinned to the endpoint it was created for.
func Connect(args ConnArguments) (*natsclient.Conn, error) {
	opts := []natsclient.Option{
		natsclient.Name(clientName),
		natsclient.DontRandomize(),
		natsclient.NoReconnect(),
	}

	if args.Timeout > 0 {
		opts = append(opts, natsclient.Timeout(args.Timeout))
	}

	if args.User != "" {
		opts = append(opts, natsclient.UserInfo(args.User, args.Password))
	}

	if args.TLS.Enabled || args.TLS.CACert != "" || args.TLS.ClientCert != "" {
		tlsCfg, err := buildTLSConfig(args.TLS)
		if err != nil {
			return nil, fmt.Errorf("building TLS config: %w", err)
		}
		opts = append(opts, natsclient.Secure(tlsCfg))
	}

	nc, err := natsclient.Connect(args.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS server %s: %w", args.Server, err)
	}

	return nc, nil
}

func buildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.Insecure, //nolint:gosec
	}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("reading CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}

// serverScheme returns the scheme of the first server URL, "nats" if none
func serverScheme(server string) string {
	first, _, _ := strings.Cut(server, ",")
	if i := strings.Index(first, "://"); i > 0 {
		return first[:i]
	}
	return "nats"
}

// hostPort strips the scheme and any credentials from a server URL
func hostPort(serverURL string) (string, error) {
	serverURL = strings.TrimSpace(serverURL)
	if !strings.Contains(serverURL, "://") {
		serverURL = "nats://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: no host", serverURL)
	}
	return u.Host, nil
}

// Bootstrap returns the comma-separated host:port list of the server URLs
func Bootstrap(connArgs ConnArguments) (string, error) {
	var hosts []string
	for _, s := range strings.Split(connArgs.Server, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		h, err := hostPort(s)
		if err != nil {
			return "", err
		}
		hosts = append(hosts, h)
	}
	if len(hosts) == 0 {
		return "", fmt.Errorf("invalid server URL %q: no servers", connArgs.Server)
	}
	return strings.Join(hosts, ","), nil
}

// withServers turns a host:port list into server URLs using the scheme of server
func withServers(server, bootstrap string) string {
	scheme := serverScheme(server)
	var urls []string
	for _, h := range strings.Split(bootstrap, ",") {
		if h = strings.TrimSpace(h); h != "" {
			urls = append(urls, scheme+"://"+h)
		}
	}
	return strings.Join(urls, ",")
}
