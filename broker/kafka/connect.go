package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const clientID = "xwait"

// TLSConfig holds TLS connection parameters for Kafka
type TLSConfig struct {
	Enabled    bool
	CACert     string
	ClientCert string
	ClientKey  string
	Insecure   bool
}

type ConnArguments struct {
	Server   string
	User     string
	Password string
	TLS      TLSConfig
	Timeout  time.Duration // dial and request timeout, 0 = kafka-go defaults
}

// parseKafkaURL parses the server URL and returns brokers and TLS config
func parseKafkaURL(serverURL string, tlsCfg TLSConfig) ([]string, *tls.Config, error) {
	if !strings.Contains(serverURL, "://") {
		serverURL = "kafka://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Extract brokers (can be comma-separated)
	var brokers []string
	for _, b := range strings.Split(u.Host, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, nil, fmt.Errorf("invalid server URL %q: no brokers", serverURL)
	}

	var tlsConfig *tls.Config
	if u.Scheme == "kafka+ssl" || u.Scheme == "kafkas" || tlsCfg.Enabled {
		tlsConfig, err = buildKafkaTLSConfig(tlsCfg)
		if err != nil {
			return nil, nil, err
		}
	}

	return brokers, tlsConfig, nil
}

// withBrokers returns serverURL with its broker list replaced, keeping the scheme
func withBrokers(serverURL, brokers string) string {
	scheme := "kafka"
	if i := strings.Index(serverURL, "://"); i > 0 {
		scheme = serverURL[:i]
	}
	return scheme + "://" + brokers
}

// Bootstrap returns the comma-separated broker list of the server URL
func Bootstrap(connArgs ConnArguments) (string, error) {
	brokers, _, err := parseKafkaURL(connArgs.Server, connArgs.TLS)
	if err != nil {
		return "", err
	}
	return strings.Join(brokers, ","), nil
}

func buildKafkaTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// getSASLMechanism returns SASL mechanism if credentials are provided
func getSASLMechanism(user, password string) sasl.Mechanism {
	if user != "" && password != "" {
		return &plain.Mechanism{
			Username: user,
			Password: password,
		}
	}
	return nil
}

// newTransport builds the kafka-go transport shared by all requests of one admin
func newTransport(connArgs ConnArguments, tlsConfig *tls.Config) *kafkago.Transport {
	transport := &kafkago.Transport{
		ClientID: clientID,
		TLS:      tlsConfig,
		SASL:     getSASLMechanism(connArgs.User, connArgs.Password),
	}
	if connArgs.Timeout > 0 {
		transport.DialTimeout = connArgs.Timeout
	}
	return transport
}
