package nats

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	natsclient "github.com/nats-io/nats.go"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/log"
)

// AdminAdapter adapts a NATS connection to the ClusterAdmin interface.
// Cluster members are the servers in the connection's pool, which the
// server extends with the client URLs its peers advertise. Topics map to
// JetStream streams.
type AdminAdapter struct {
	connArgs ConnArguments
	nc       *natsclient.Conn
	js       natsclient.JetStreamContext
}

// NewAdminAdapter creates a NATS admin adapter. The connection is opened by
// the first call so that a server that is still starting is retried by the
// caller instead of failing here.
func NewAdminAdapter(connArgs ConnArguments) (*AdminAdapter, error) {
	if _, err := Bootstrap(connArgs); err != nil {
		return nil, err
	}
	return &AdminAdapter{connArgs: connArgs}, nil
}

// AdminFactory returns a factory creating admins scoped to the requested
// bootstrap addresses, with the credentials and TLS settings of connArgs.
func AdminFactory(connArgs ConnArguments) backends.AdminFactory {
	return func(bootstrap string) (backends.ClusterAdmin, error) {
		scoped := connArgs
		scoped.Server = withServers(connArgs.Server, bootstrap)
		return NewAdminAdapter(scoped)
	}
}

func (a *AdminAdapter) connect() (*natsclient.Conn, error) {
	if a.nc != nil && !a.nc.IsClosed() {
		return a.nc, nil
	}

	log.Verbose("connecting to %s...", a.connArgs.Server)
	nc, err := Connect(a.connArgs)
	if err != nil {
		return nil, backends.Transient(err)
	}
	a.nc = nc
	a.js = nil
	return nc, nil
}

func (a *AdminAdapter) jetStream() (natsclient.JetStreamContext, error) {
	nc, err := a.connect()
	if err != nil {
		return nil, err
	}
	if a.js == nil {
		js, err := nc.JetStream()
		if err != nil {
			return nil, fmt.Errorf("creating JetStream context: %w", err)
		}
		a.js = js
	}
	return a.js, nil
}

// DescribeCluster implements backends.ClusterAdmin
func (a *AdminAdapter) DescribeCluster(ctx context.Context) (*backends.ClusterDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nc, err := a.connect()
	if err != nil {
		return nil, err
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		return nil, classifyError(err)
	}

	desc := &backends.ClusterDescription{ControllerID: nc.ConnectedServerId()}
	seen := make(map[string]bool)
	for _, s := range nc.Servers() {
		n, err := nodeFromURL(s)
		if err != nil {
			log.Verbose("ignoring server URL %s: %v", s, err)
			continue
		}
		if addr := n.Addr(); !seen[addr] {
			seen[addr] = true
			desc.Nodes = append(desc.Nodes, n)
		}
	}

	return desc, nil
}

// CreateTopic implements backends.ClusterAdmin
func (a *AdminAdapter) CreateTopic(ctx context.Context, spec backends.TopicSpec) error {
	js, err := a.jetStream()
	if err != nil {
		return err
	}

	_, err = js.AddStream(&natsclient.StreamConfig{
		Name:     spec.Name,
		Subjects: []string{spec.Name},
		Replicas: spec.ReplicationFactor,
		Storage:  natsclient.MemoryStorage,
	}, natsclient.Context(ctx))
	return classifyError(err)
}

// DescribeTopic implements backends.ClusterAdmin
func (a *AdminAdapter) DescribeTopic(ctx context.Context, name string) (*backends.TopicDescription, error) {
	js, err := a.jetStream()
	if err != nil {
		return nil, err
	}

	info, err := js.StreamInfo(name, natsclient.Context(ctx))
	if err != nil {
		return nil, classifyError(err)
	}

	// a stream is a single partition replicated across its peer group
	partition := backends.PartitionInfo{ID: 0}
	if info.Cluster != nil {
		if info.Cluster.Leader != "" {
			partition.Replicas = append(partition.Replicas, info.Cluster.Leader)
		}
		for _, peer := range info.Cluster.Replicas {
			if peer != nil && peer.Name != "" {
				partition.Replicas = append(partition.Replicas, peer.Name)
			}
		}
	}

	return &backends.TopicDescription{
		Name:       name,
		Partitions: []backends.PartitionInfo{partition},
	}, nil
}

// DeleteTopic implements backends.ClusterAdmin
func (a *AdminAdapter) DeleteTopic(ctx context.Context, name string) error {
	js, err := a.jetStream()
	if err != nil {
		return err
	}
	return classifyError(js.DeleteStream(name, natsclient.Context(ctx)))
}

// Close implements backends.ClusterAdmin
func (a *AdminAdapter) Close() error {
	if a.nc != nil {
		a.nc.Close()
	}
	return nil
}

func nodeFromURL(serverURL string) (backends.Node, error) {
	hp, err := hostPort(serverURL)
	if err != nil {
		return backends.Node{}, err
	}
	host, portStr, err := net.SplitHostPort(hp)
	if err != nil {
		return backends.Node{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return backends.Node{}, fmt.Errorf("invalid port in %s: %w", serverURL, err)
	}
	n := backends.Node{Host: host, Port: port}
	n.ID = n.Addr()
	return n, nil
}

// classifyError maps nats.go errors onto the backends sentinels. JetStream
// answers with 5xx API errors and no responders while its meta group forms.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, natsclient.ErrStreamNameAlreadyInUse):
		return fmt.Errorf("%w: %v", backends.ErrTopicExists, err)
	case errors.Is(err, natsclient.ErrStreamNotFound):
		return fmt.Errorf("%w: %v", backends.ErrUnknownTopic, err)
	case errors.Is(err, natsclient.ErrTimeout),
		errors.Is(err, natsclient.ErrNoResponders),
		errors.Is(err, natsclient.ErrJetStreamNotEnabled),
		errors.Is(err, natsclient.ErrConnectionClosed),
		errors.Is(err, context.DeadlineExceeded):
		return backends.Transient(err)
	}

	var apiErr *natsclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			return backends.Transient(err)
		}
		return err
	}

	return backends.Transient(err)
}
