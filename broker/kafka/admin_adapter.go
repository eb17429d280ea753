package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/log"
	kafkago "github.com/segmentio/kafka-go"
)

// AdminAdapter adapts a kafka-go client to the ClusterAdmin interface
type AdminAdapter struct {
	client    *kafkago.Client
	transport *kafkago.Transport
}

// NewAdminAdapter creates a Kafka admin adapter for the brokers in connArgs.Server
func NewAdminAdapter(connArgs ConnArguments) (*AdminAdapter, error) {
	brokers, tlsConfig, err := parseKafkaURL(connArgs.Server, connArgs.TLS)
	if err != nil {
		return nil, err
	}

	transport := newTransport(connArgs, tlsConfig)
	log.Verbose("creating Kafka admin client for %v", brokers)

	return &AdminAdapter{
		client: &kafkago.Client{
			Addr:      kafkago.TCP(brokers...),
			Timeout:   connArgs.Timeout,
			Transport: transport,
		},
		transport: transport,
	}, nil
}

// AdminFactory returns a factory creating admins scoped to the requested
// bootstrap addresses, with the credentials and TLS settings of connArgs.
func AdminFactory(connArgs ConnArguments) backends.AdminFactory {
	return func(bootstrap string) (backends.ClusterAdmin, error) {
		scoped := connArgs
		scoped.Server = withBrokers(connArgs.Server, bootstrap)
		return NewAdminAdapter(scoped)
	}
}

// DescribeCluster implements backends.ClusterAdmin
func (a *AdminAdapter) DescribeCluster(ctx context.Context) (*backends.ClusterDescription, error) {
	resp, err := a.client.Metadata(ctx, &kafkago.MetadataRequest{Topics: []string{}})
	if err != nil {
		return nil, classifyError(err)
	}

	desc := &backends.ClusterDescription{
		Nodes: make([]backends.Node, 0, len(resp.Brokers)),
	}
	// kafka-go resolves an unknown controller id to a zero Broker
	if controller := nodeFromBroker(resp.Controller); !controller.IsEmpty() {
		desc.ControllerID = controller.ID
	}
	for _, b := range resp.Brokers {
		desc.Nodes = append(desc.Nodes, nodeFromBroker(b))
	}

	return desc, nil
}

// CreateTopic implements backends.ClusterAdmin
func (a *AdminAdapter) CreateTopic(ctx context.Context, spec backends.TopicSpec) error {
	resp, err := a.client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{{
			Topic:             spec.Name,
			NumPartitions:     spec.Partitions,
			ReplicationFactor: spec.ReplicationFactor,
		}},
	})
	if err != nil {
		return classifyError(err)
	}
	return classifyError(resp.Errors[spec.Name])
}

// DescribeTopic implements backends.ClusterAdmin
func (a *AdminAdapter) DescribeTopic(ctx context.Context, name string) (*backends.TopicDescription, error) {
	resp, err := a.client.Metadata(ctx, &kafkago.MetadataRequest{Topics: []string{name}})
	if err != nil {
		return nil, classifyError(err)
	}

	for _, t := range resp.Topics {
		if t.Name != name {
			continue
		}
		if t.Error != nil {
			return nil, classifyError(t.Error)
		}
		return topicDescription(t), nil
	}

	return nil, fmt.Errorf("%w: %s", backends.ErrUnknownTopic, name)
}

// DeleteTopic implements backends.ClusterAdmin
func (a *AdminAdapter) DeleteTopic(ctx context.Context, name string) error {
	resp, err := a.client.DeleteTopics(ctx, &kafkago.DeleteTopicsRequest{Topics: []string{name}})
	if err != nil {
		return classifyError(err)
	}
	return classifyError(resp.Errors[name])
}

// Close implements backends.ClusterAdmin
func (a *AdminAdapter) Close() error {
	a.transport.CloseIdleConnections()
	return nil
}

func nodeFromBroker(b kafkago.Broker) backends.Node {
	return backends.Node{
		ID:   strconv.Itoa(b.ID),
		Host: b.Host,
		Port: b.Port,
	}
}

func topicDescription(t kafkago.Topic) *backends.TopicDescription {
	desc := &backends.TopicDescription{
		Name:       t.Name,
		Partitions: make([]backends.PartitionInfo, 0, len(t.Partitions)),
	}
	for _, p := range t.Partitions {
		info := backends.PartitionInfo{ID: p.ID}
		for _, r := range p.Replicas {
			if n := nodeFromBroker(r); !n.IsEmpty() {
				info.Replicas = append(info.Replicas, n.ID)
			}
		}
		desc.Partitions = append(desc.Partitions, info)
	}
	return desc
}

// classifyError maps kafka-go errors onto the backends sentinels. Anything
// that is not a Kafka protocol error (refused dials, resets, deadlines) is
// what a forming cluster produces, so it is retriable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var kerr kafkago.Error
	if !errors.As(err, &kerr) {
		return backends.Transient(err)
	}

	switch {
	case kerr == kafkago.TopicAlreadyExists:
		return fmt.Errorf("%w: %v", backends.ErrTopicExists, err)
	case kerr == kafkago.UnknownTopicOrPartition:
		return fmt.Errorf("%w: %v", backends.ErrUnknownTopic, err)
	case kerr == kafkago.InvalidReplicationFactor:
		// fewer brokers registered than the replication factor asks for
		return backends.Transient(err)
	case kerr.Temporary():
		return backends.Transient(err)
	}
	return err
}
