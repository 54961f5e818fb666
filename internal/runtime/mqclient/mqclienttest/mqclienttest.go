// Package mqclienttest provides a scripted in-memory queue client for poller
// and service tests.
package mqclienttest

import (
	"context"
	"sync"

	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/transport"
)

// Client is an in-memory queue manager. Queues, status records and failures
// are shared by every connection it opens.
type Client struct {
	mu          sync.Mutex
	queues      map[string][]*mqclient.RawMessage
	status      map[string][]mqclient.StatusRecord
	statusErrs  map[string]error
	getErrs     map[string][]error
	connectErrs []error
	conns       []*Connection
	gets        []string

	// OnGet runs before every retrieval, outside the client lock.
	OnGet func(target string)
}

var _ mqclient.Client = (*Client)(nil)

// New returns an empty client.
func New() *Client {
	return &Client{
		queues:     make(map[string][]*mqclient.RawMessage),
		status:     make(map[string][]mqclient.StatusRecord),
		statusErrs: make(map[string]error),
		getErrs:    make(map[string][]error),
	}
}

// Put appends messages to target.
func (c *Client) Put(target string, msgs ...*mqclient.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[target] = append(c.queues[target], msgs...)
}

// SetStatus replaces the status records returned for target.
func (c *Client) SetStatus(target string, records ...mqclient.StatusRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[target] = records
}

// FailStatus makes every status query for target return err.
func (c *Client) FailStatus(target string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusErrs[target] = err
}

// FailGet queues errors returned, in order, by the next retrievals from
// target.
func (c *Client) FailGet(target string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getErrs[target] = append(c.getErrs[target], errs...)
}

// FailConnect queues errors returned, in order, by the next Connect calls.
func (c *Client) FailConnect(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErrs = append(c.connectErrs, errs...)
}

// Pending returns the number of messages left on target.
func (c *Client) Pending(target string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[target])
}

// Gets returns every target retrieved from, in call order.
func (c *Client) Gets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.gets...)
}

// Connections returns the connections opened so far.
func (c *Client) Connections() []*Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Connection(nil), c.conns...)
}

// Connect opens a connection unless a queued connect error is pending.
func (c *Client) Connect(ctx context.Context, manager string, creds transport.Credentials) (mqclient.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.connectErrs) > 0 {
		err := c.connectErrs[0]
		c.connectErrs = c.connectErrs[1:]
		return nil, err
	}
	conn := &Connection{client: c, Manager: manager, Credentials: creds, connected: true}
	c.conns = append(c.conns, conn)
	return conn, nil
}

func (c *Client) next(target string) (*mqclient.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets = append(c.gets, target)
	if errs := c.getErrs[target]; len(errs) > 0 {
		c.getErrs[target] = errs[1:]
		return nil, errs[0]
	}
	q := c.queues[target]
	if len(q) == 0 {
		return nil, mqclient.ErrNoMoreData
	}
	c.queues[target] = q[1:]
	return q[0], nil
}

func (c *Client) inquire(target string) ([]mqclient.StatusRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets = append(c.gets, target)
	if err := c.statusErrs[target]; err != nil {
		return nil, err
	}
	records := c.status[target]
	if len(records) == 0 {
		return nil, mqclient.ErrStatusNotFound
	}
	return append([]mqclient.StatusRecord(nil), records...), nil
}

// Connection is one connection opened by Client.
type Connection struct {
	client      *Client
	Manager     string
	Credentials transport.Credentials

	mu          sync.Mutex
	connected   bool
	disconnects int
}

var _ mqclient.Connection = (*Connection)(nil)

func (c *Connection) GetNext(ctx context.Context, target string) (*mqclient.RawMessage, error) {
	if err := c.check(ctx, "get", target); err != nil {
		return nil, err
	}
	return c.client.next(target)
}

func (c *Connection) InquireStatus(ctx context.Context, target string) ([]mqclient.StatusRecord, error) {
	if err := c.check(ctx, "inquire", target); err != nil {
		return nil, err
	}
	return c.client.inquire(target)
}

func (c *Connection) check(ctx context.Context, op, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if hook := c.client.OnGet; hook != nil {
		hook(target)
	}
	if !c.IsConnected() {
		return &mqclient.TransportError{Op: op, Manager: c.Manager, Target: target, Err: mqclient.ErrNotConnected}
	}
	return nil
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnects++
	return nil
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Break marks the connection dead without counting a disconnect.
func (c *Connection) Break() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// Disconnects returns how often Disconnect was called.
func (c *Connection) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}
