//go:build integration

// Package integration provides testcontainer helpers for xwait integration tests.
// Build with: -tags integration
package integration

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// BrokerContainer holds a running test broker container.
type BrokerContainer struct {
	Container testcontainers.Container
	URL       string
}

func (b *BrokerContainer) Terminate(ctx context.Context) {
	if b.Container != nil {
		b.Container.Terminate(ctx) //nolint:errcheck
	}
}

// StartKafka starts a single-broker Kafka container using the testcontainers
// module and returns the broker address as a kafka:// URL.
func StartKafka(ctx context.Context) (*BrokerContainer, error) {
	c, err := kafka.Run(ctx, "confluentinc/cp-kafka:7.6.1")
	if err != nil {
		return nil, fmt.Errorf("starting Kafka: %w", err)
	}

	brokers, err := c.Brokers(ctx)
	if err != nil {
		c.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &BrokerContainer{Container: c, URL: "kafka://" + brokers[0]}, nil
}

// StartNATS starts a NATS container with JetStream enabled using the
// testcontainers module and returns its connection URL.
func StartNATS(ctx context.Context) (*BrokerContainer, error) {
	c, err := nats.Run(ctx, "nats:latest", nats.WithArgument("--js", ""))
	if err != nil {
		return nil, fmt.Errorf("starting NATS: %w", err)
	}

	url, err := c.ConnectionString(ctx)
	if err != nil {
		c.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &BrokerContainer{Container: c, URL: url}, nil
}
