package readiness

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/makibytes/xwait/broker/backends"
)

// fakeCluster is a test double standing behind every admin the factory hands out
type fakeCluster struct {
	// views answers DescribeCluster per endpoint; attempt counts from 1
	views      map[string]func(ctx context.Context, attempt int) (*backends.ClusterDescription, error)
	factoryErr map[string]error

	createErrs    []error
	describeTopic func(attempt int) (*backends.TopicDescription, error)
	deleteErr     error
	deleteBlocks  bool // DeleteTopic waits for its context to end

	opened         []string
	closed         int
	describeCalls  map[string]int
	createCalls    int
	createdSpecs   []backends.TopicSpec
	topicDescribes int
	deleted        []string
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		views:         make(map[string]func(context.Context, int) (*backends.ClusterDescription, error)),
		factoryErr:    make(map[string]error),
		describeCalls: make(map[string]int),
	}
}

// reports makes endpoint answer every attempt with the given view
func (c *fakeCluster) reports(endpoint string, desc *backends.ClusterDescription) {
	c.views[endpoint] = func(context.Context, int) (*backends.ClusterDescription, error) {
		return desc, nil
	}
}

func (c *fakeCluster) factory() backends.AdminFactory {
	return func(bootstrap string) (backends.ClusterAdmin, error) {
		c.opened = append(c.opened, bootstrap)
		if err := c.factoryErr[bootstrap]; err != nil {
			return nil, err
		}
		return &fakeAdmin{bootstrap: bootstrap, cluster: c}, nil
	}
}

type fakeAdmin struct {
	bootstrap string
	cluster   *fakeCluster
}

func (a *fakeAdmin) DescribeCluster(ctx context.Context) (*backends.ClusterDescription, error) {
	a.cluster.describeCalls[a.bootstrap]++
	view, ok := a.cluster.views[a.bootstrap]
	if !ok {
		return nil, errConnRefused
	}
	return view(ctx, a.cluster.describeCalls[a.bootstrap])
}

func (a *fakeAdmin) CreateTopic(_ context.Context, spec backends.TopicSpec) error {
	a.cluster.createCalls++
	a.cluster.createdSpecs = append(a.cluster.createdSpecs, spec)
	if i := a.cluster.createCalls - 1; i < len(a.cluster.createErrs) {
		return a.cluster.createErrs[i]
	}
	return nil
}

func (a *fakeAdmin) DescribeTopic(_ context.Context, name string) (*backends.TopicDescription, error) {
	a.cluster.topicDescribes++
	if a.cluster.describeTopic == nil {
		return nil, backends.ErrUnknownTopic
	}
	return a.cluster.describeTopic(a.cluster.topicDescribes)
}

func (a *fakeAdmin) DeleteTopic(ctx context.Context, name string) error {
	a.cluster.deleted = append(a.cluster.deleted, name)
	if a.cluster.deleteBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return a.cluster.deleteErr
}

func (a *fakeAdmin) Close() error {
	a.cluster.closed++
	return nil
}

var errConnRefused = errors.New("dial tcp: connection refused")

// clusterOf builds a view with a controller and one node per address
func clusterOf(t *testing.T, addrs ...string) *backends.ClusterDescription {
	t.Helper()
	desc := &backends.ClusterDescription{ControllerID: "1"}
	for i, addr := range addrs {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			t.Fatalf("bad address %q: %v", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			t.Fatalf("bad port in %q: %v", addr, err)
		}
		desc.Nodes = append(desc.Nodes, backends.Node{ID: strconv.Itoa(i + 1), Host: host, Port: port})
	}
	return desc
}

func testConfig(bootstrap string, expected int) Config {
	return Config{
		Bootstrap:       bootstrap,
		ExpectedBrokers: expected,
		Timeout:         200 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		MetadataTimeout: 50 * time.Millisecond,
		Topic:           "probe-topic",
	}
}
