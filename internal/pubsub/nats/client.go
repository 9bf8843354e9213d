package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ammindexer/internal/config"
	"ammindexer/internal/pubsub"

	"github.com/nats-io/nats.go"
	"gitlab.com/nevasik7/alerting/logger"
)

var (
	_ pubsub.Subscriber = (*Client)(nil)
	_ pubsub.Publisher  = (*Client)(nil)
)

const drainTimeout = 10 * time.Second

type Client struct {
	nc     *nats.Conn
	log    logger.Logger
	closed chan struct{}
}

func Connect(log logger.Logger, cfg *config.NATSConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	name := cfg.Name
	if name == "" {
		name = "ammindexer"
	}

	c := &Client{log: log, closed: make(chan struct{})}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DrainTimeout(drainTimeout),
		nats.ClosedHandler(func(*nats.Conn) { close(c.closed) }),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.nc = nc

	log.Infof("Connected to NATS successfully, url=%s", cfg.URL)
	return c, nil
}

// Subscribe delivers messages to h sequentially, in arrival order. Pending
// messages are never dropped for a slow handler.
func (c *Client) Subscribe(ctx context.Context, subject, queue string, h pubsub.MessageHandler) (pubsub.Subscription, error) {
	if c.nc == nil {
		return nil, errors.New("nats connection is not established")
	}

	cb := func(msg *nats.Msg) { h(ctx, msg.Data) }

	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = c.nc.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = c.nc.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe subject=%s: %w", subject, err)
	}

	if err = sub.SetPendingLimits(-1, -1); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to set pending limits: %w", err)
	}

	// the server must know about the interest before Start returns
	if err = c.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush subscription: %w", err)
	}

	c.log.Infof("Subscribed to NATS, subject=%s queue=%s", subject, queue)
	return sub, nil
}

// Publish sends data as JSON unless it is already a byte slice.
func (c *Client) Publish(_ context.Context, subject string, data interface{}) error {
	if c.nc == nil {
		return errors.New("nats connection is not established")
	}

	var payload []byte
	switch v := data.(type) {
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		payload = b
	}

	if err := c.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish subject=%s: %w", subject, err)
	}
	return nil
}

func (c *Client) Flush() error {
	if c.nc == nil {
		return nil
	}
	return c.nc.Flush()
}

func (c *Client) Health(context.Context) error {
	if !c.Ready() {
		return fmt.Errorf("nats status %s", c.Status())
	}
	return nil
}

func (c *Client) Ready() bool {
	if c.nc == nil {
		return false
	}
	return c.nc.Status() == nats.CONNECTED
}

func (c *Client) Status() nats.Status {
	if c.nc == nil {
		return nats.DISCONNECTED
	}
	return c.nc.Status()
}

// Close drains subscriptions so in-flight handlers finish, then closes.
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}
	if c.nc.IsClosed() {
		return nil
	}

	if err := c.nc.Drain(); err != nil {
		c.log.Errorf("Failed to drain connection to NATS, error=%v", err)
		c.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}

	select {
	case <-c.closed:
	case <-time.After(drainTimeout + time.Second):
		c.nc.Close()
	}

	c.log.Infof("NATS connection closed gracefully")
	return nil
}
