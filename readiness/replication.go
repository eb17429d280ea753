package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/log"
)

// AwaitExpectedBrokerCountViaTopic verifies that the expected number of
// brokers take part in replication. It creates a single-partition topic whose
// replication factor equals cfg.ExpectedBrokers and polls its metadata until
// the replicas span that many distinct brokers. The topic is deleted once
// the condition holds.
func AwaitExpectedBrokerCountViaTopic(ctx context.Context, cfg Config, factory backends.AdminFactory) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	admin, err := factory(cfg.Bootstrap)
	if err != nil {
		return fmt.Errorf("creating admin client for %s: %w", cfg.Bootstrap, err)
	}
	defer admin.Close()

	deadline := time.Now().Add(cfg.Timeout)
	topic := cfg.topic()

	log.Verbose("creating topic %s via %s", topic, cfg.Bootstrap)
	if err := createTopic(ctx, cfg, admin, time.Until(deadline)); err != nil {
		if errors.Is(err, ErrPollTimeout) {
			return fmt.Errorf("%w: topic %s was not created: %v", tooFewBrokers(0, cfg.ExpectedBrokers), topic, err)
		}
		return err
	}

	log.Verbose("waiting for %s to be replicated to %d brokers", topic, cfg.ExpectedBrokers)
	observed := 0
	err = awaitCondition(ctx, time.Until(deadline), cfg.PollInterval, func(ctx context.Context) (bool, error) {
		n, ok := distinctReplicas(ctx, cfg, admin)
		if !ok {
			return false, nil
		}
		observed = n
		return n == cfg.ExpectedBrokers, nil
	})
	if err != nil {
		if errors.Is(err, ErrPollTimeout) {
			return fmt.Errorf("%w: topic %s: %v", tooFewBrokers(observed, cfg.ExpectedBrokers), topic, err)
		}
		return err
	}

	delCtx, cancel := context.WithTimeout(ctx, cfg.metadataTimeout())
	defer cancel()
	if err := admin.DeleteTopic(delCtx, topic); err != nil {
		log.Warn("failed to delete topic %s: %v", topic, err)
	}
	return nil
}

func createTopic(ctx context.Context, cfg Config, admin backends.ClusterAdmin, timeout time.Duration) error {
	spec := backends.TopicSpec{
		Name:              cfg.topic(),
		Partitions:        1,
		ReplicationFactor: cfg.ExpectedBrokers,
	}

	return awaitCondition(ctx, timeout, cfg.PollInterval, func(ctx context.Context) (bool, error) {
		callCtx, cancel := context.WithTimeout(ctx, cfg.metadataTimeout())
		defer cancel()

		err := admin.CreateTopic(callCtx, spec)
		switch {
		case err == nil:
			log.Verbose("created topic %s", spec.Name)
			return true, nil
		case errors.Is(err, backends.ErrTopicExists):
			log.Verbose("topic %s already exists", spec.Name)
			return true, nil
		case backends.IsTransient(err), errors.Is(err, context.DeadlineExceeded):
			log.Warn("failed to create topic %s due to %v, retrying", spec.Name, err)
			return false, nil
		default:
			return false, fmt.Errorf("%w %s: %v", ErrTopicCreation, spec.Name, err)
		}
	})
}

// distinctReplicas counts the distinct brokers holding a replica of any
// partition of the probe topic.
func distinctReplicas(ctx context.Context, cfg Config, admin backends.ClusterAdmin) (int, bool) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.metadataTimeout())
	defer cancel()

	desc, err := admin.DescribeTopic(callCtx, cfg.topic())
	if err != nil {
		if errors.Is(err, backends.ErrUnknownTopic) {
			log.Verbose("cluster quorum test topic (%s) doesn't exist yet", cfg.topic())
		} else {
			log.Warn("unexpected failure describing topic %s: %v", cfg.topic(), err)
		}
		return 0, false
	}

	replicas := newEndpointSet()
	for _, p := range desc.Partitions {
		for _, id := range p.Replicas {
			if id != "" {
				replicas.add(id)
			}
		}
	}
	log.Verbose("topic %s replicas: %v", cfg.topic(), replicas.sorted())

	return len(replicas), true
}
