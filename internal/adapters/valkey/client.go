package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Client wraps a Valkey connection shared by the API replicas.
type Client struct {
	client valkey.Client
}

// New connects to Valkey at addr.
func New(addr string) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Client{client: client}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Client) Close() {
	c.client.Close()
}

// LimiterStorage returns a fiber.Storage for the rate limiter whose keys are
// namespaced under prefix.
func (c *Client) LimiterStorage(prefix string) *Storage {
	return &Storage{client: c.client, prefix: prefix, timeout: 2 * time.Second}
}
