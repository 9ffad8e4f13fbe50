package socket

import (
	"fmt"
	"net"
	"time"
)

// Default client timeouts.
const (
	DefaultDialTimeout  = 2 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// Client sends wire messages to the IDE's listening endpoint. Each Send
// opens a fresh connection, so a restarted IDE is picked up without
// reconnect logic.
type Client struct {
	network string
	address string

	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient creates a client for network ("tcp" or "unix") and address.
func NewClient(network, address string) *Client {
	return &Client{
		network:      network,
		address:      address,
		DialTimeout:  DefaultDialTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Send implements ports.Transport.
func (c *Client) Send(message string) error {
	conn, err := net.DialTimeout(c.network, c.address, c.DialTimeout)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.WriteTimeout))

	if _, err := conn.Write([]byte(frame(message))); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Ping checks whether the endpoint accepts connections.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout(c.network, c.address, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
