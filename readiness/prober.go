// Package readiness blocks until a broker cluster shows the expected number
// of ready brokers. It is meant to gate integration tests against a cluster
// that is still forming.
package readiness

import (
	"context"
	"errors"
	"fmt"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/log"
)

var (
	// ErrInvalidConfig is returned when a Config cannot drive a probe
	ErrInvalidConfig = errors.New("invalid readiness config")

	// ErrTooFewBrokers is returned when fewer brokers than expected became ready
	ErrTooFewBrokers = errors.New("too few broker(s) became ready")

	// ErrTopicCreation is returned when the probe topic fails with a non-retriable error
	ErrTopicCreation = errors.New("failed to create consistency topic")

	// ErrPollTimeout is returned when a condition did not hold before its timeout
	ErrPollTimeout = errors.New("condition not met")
)

func tooFewBrokers(ready, expected int) error {
	return fmt.Errorf("%w (%d), expected %d", ErrTooFewBrokers, ready, expected)
}

// AwaitExpectedBrokerCount verifies that each broker in the cluster reports
// the expected cluster size. Starting from the bootstrap addresses it probes
// one endpoint at a time through its own admin client, queues every peer the
// endpoint reports, and counts the endpoint as ready once it reports exactly
// cfg.ExpectedBrokers nodes. It fails with ErrTooFewBrokers when the
// candidates run out first.
func AwaitExpectedBrokerCount(ctx context.Context, cfg Config, factory backends.AdminFactory) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	p := &prober{
		cfg:         cfg,
		factory:     factory,
		knownReady:  newEndpointSet(),
		toProbe:     newEndpointSet(SplitBootstrap(cfg.Bootstrap)...),
		unreachable: newEndpointSet(),
	}

	for len(p.knownReady) < cfg.ExpectedBrokers {
		endpoint, ok := p.toProbe.next()
		if !ok {
			return tooFewBrokers(len(p.knownReady), cfg.ExpectedBrokers)
		}

		ready, err := p.probe(ctx, endpoint)
		if err != nil {
			return err
		}

		p.toProbe.remove(endpoint)
		if ready {
			p.knownReady.add(endpoint)
		} else {
			p.unreachable.add(endpoint)
		}
		log.Verbose("toProbe: %v, knownReady: %v", p.toProbe.sorted(), p.knownReady.sorted())
	}

	return nil
}

type prober struct {
	cfg     Config
	factory backends.AdminFactory

	knownReady  endpointSet
	toProbe     endpointSet
	unreachable endpointSet
}

// probe polls a single endpoint until it reports the expected cluster size.
// It returns false when the endpoint never got there within the timeout,
// and an error only when ctx was cancelled.
func (p *prober) probe(ctx context.Context, endpoint string) (bool, error) {
	admin, err := p.factory(endpoint)
	if err != nil {
		log.Warn("cannot create admin client for %s: %v", endpoint, err)
		return false, nil
	}
	defer admin.Close()

	err = awaitCondition(ctx, p.cfg.Timeout, p.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		log.Verbose("describing cluster using address: %s", endpoint)
		nodes, ok := p.describeNodes(ctx, admin, endpoint)
		if !ok {
			return false, nil
		}
		return len(nodes) == p.cfg.ExpectedBrokers, nil
	})
	switch {
	case err == nil:
		log.Verbose("%s is ready", endpoint)
		return true, nil
	case errors.Is(err, ErrPollTimeout):
		log.Warn("%s did not report %d broker(s): %v", endpoint, p.cfg.ExpectedBrokers, err)
		return false, nil
	default:
		return false, fmt.Errorf("probing %s: %w", endpoint, err)
	}
}

// describeNodes performs one attempt against admin. It queues newly seen
// peers and returns the non-empty nodes, or false when the attempt failed.
func (p *prober) describeNodes(ctx context.Context, admin backends.ClusterAdmin, endpoint string) ([]backends.Node, bool) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.metadataTimeout())
	defer cancel()

	desc, err := admin.DescribeCluster(callCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("%s timed out describing the cluster", endpoint)
		} else {
			log.Warn("describing cluster using %s: %v", endpoint, err)
		}
		return nil, false
	}
	if desc.ControllerID == "" {
		log.Verbose("%s reports no controller yet", endpoint)
		return nil, false
	}

	nodes := make([]backends.Node, 0, len(desc.Nodes))
	for _, n := range desc.Nodes {
		if n.IsEmpty() {
			continue
		}
		nodes = append(nodes, n)
		addr := n.Addr()
		if !p.knownReady.has(addr) && !p.unreachable.has(addr) {
			p.toProbe.add(addr)
		}
	}
	log.Verbose("%s sees peers: %v", endpoint, nodes)

	return nodes, true
}
