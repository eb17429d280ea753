package backends

import (
	"context"
	"errors"
	"net"
	"strconv"
)

var (
	// ErrUnknownTopic is returned by DescribeTopic when the topic does not exist (yet)
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrTopicExists is returned by CreateTopic when the topic is already present
	ErrTopicExists = errors.New("topic already exists")
)

// Node is a broker as reported by the cluster metadata
type Node struct {
	ID   string
	Host string
	Port int
}

// IsEmpty reports whether the node carries no usable address
func (n Node) IsEmpty() bool {
	return n.Host == "" || n.Port <= 0
}

// Addr returns the node address as "host:port"
func (n Node) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// ClusterDescription is the membership view of a single broker
type ClusterDescription struct {
	ControllerID string // empty while no controller is elected
	Nodes        []Node
}

// TopicSpec describes a topic to create
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// PartitionInfo holds the replica placement of one partition
type PartitionInfo struct {
	ID       int
	Replicas []string // broker ids
}

// TopicDescription holds the partitions of a topic
type TopicDescription struct {
	Name       string
	Partitions []PartitionInfo
}

// ClusterAdmin defines the administrative operations used to probe cluster readiness
type ClusterAdmin interface {
	// DescribeCluster returns the controller and the nodes the broker knows about
	DescribeCluster(ctx context.Context) (*ClusterDescription, error)

	// CreateTopic creates a topic
	CreateTopic(ctx context.Context, spec TopicSpec) error

	// DescribeTopic returns the partitions and replicas of a topic
	DescribeTopic(ctx context.Context, name string) (*TopicDescription, error)

	// DeleteTopic deletes a topic
	DeleteTopic(ctx context.Context, name string) error

	// Close closes the connection to the broker
	Close() error
}

// AdminFactory creates a ClusterAdmin connected to the given comma-separated
// bootstrap addresses.
type AdminFactory func(bootstrap string) (ClusterAdmin, error)

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retriable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether any error in err's chain was marked retriable
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
