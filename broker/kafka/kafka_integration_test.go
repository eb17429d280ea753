//go:build integration

package kafka

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/makibytes/xwait/readiness"
	integration "github.com/makibytes/xwait/test/integration"
)

var testBroker string // just "host:port"

func TestMain(m *testing.M) {
	ctx := context.Background()
	broker, err := integration.StartKafka(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start Kafka: %v\n", err)
		os.Exit(1)
	}
	// Strip "kafka://" prefix
	testBroker = strings.TrimPrefix(broker.URL, "kafka://")
	code := m.Run()
	broker.Terminate(ctx)
	os.Exit(code)
}

func makeConnArgs() ConnArguments {
	return ConnArguments{Server: "kafka://" + testBroker, Timeout: 5 * time.Second}
}

func probeConfig(expected int, timeout time.Duration) readiness.Config {
	return readiness.Config{
		Bootstrap:       testBroker,
		ExpectedBrokers: expected,
		Timeout:         timeout,
		PollInterval:    500 * time.Millisecond,
		MetadataTimeout: 5 * time.Second,
		Topic:           readiness.DefaultTopic,
	}
}

// TestKafka_DescribeCluster verifies that the single broker reports itself
// and a controller.
func TestKafka_DescribeCluster(t *testing.T) {
	admin, err := NewAdminAdapter(makeConnArgs())
	if err != nil {
		t.Fatalf("NewAdminAdapter: %v", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	desc, err := admin.DescribeCluster(ctx)
	if err != nil {
		t.Fatalf("DescribeCluster: %v", err)
	}
	if desc.ControllerID == "" {
		t.Error("expected a controller")
	}
	if len(desc.Nodes) != 1 {
		t.Errorf("expected 1 node, got %v", desc.Nodes)
	}
}

// TestKafka_AwaitExpectedBrokerCount verifies the endpoint expansion probe
// against a real single-broker cluster.
func TestKafka_AwaitExpectedBrokerCount(t *testing.T) {
	err := readiness.AwaitExpectedBrokerCount(context.Background(), probeConfig(1, 60*time.Second), AdminFactory(makeConnArgs()))
	if err != nil {
		t.Fatalf("AwaitExpectedBrokerCount: %v", err)
	}
}

// TestKafka_AwaitExpectedBrokerCountViaTopic verifies the replication probe
// creates, observes and deletes its topic.
func TestKafka_AwaitExpectedBrokerCountViaTopic(t *testing.T) {
	cfg := probeConfig(1, 60*time.Second)
	cfg.Topic = "xwait-integration-probe"

	err := readiness.AwaitExpectedBrokerCountViaTopic(context.Background(), cfg, AdminFactory(makeConnArgs()))
	if err != nil {
		t.Fatalf("AwaitExpectedBrokerCountViaTopic: %v", err)
	}
}

// TestKafka_AwaitTooManyBrokers verifies that asking for more brokers than
// exist fails with a shortfall error.
func TestKafka_AwaitTooManyBrokers(t *testing.T) {
	err := readiness.AwaitExpectedBrokerCount(context.Background(), probeConfig(3, 5*time.Second), AdminFactory(makeConnArgs()))
	if !errors.Is(err, readiness.ErrTooFewBrokers) {
		t.Fatalf("expected ErrTooFewBrokers, got %v", err)
	}
}
