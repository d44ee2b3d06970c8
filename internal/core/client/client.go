package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/mbrault/morpion/internal/core/data"
	"github.com/mbrault/morpion/internal/core/debug"
)

// Client represents a user connected through the game's wire protocol. Messages
// are UTF-8 JSON objects delimited by newlines; the reader accumulates bytes
// across partial reads and only hands back whole messages.
type Client struct {
	connection net.Conn
	ipAddr     string
	port       string

	reader *bufio.Scanner

	// sendMutex serializes writes so that goroutines handling other
	// connections can safely send to this client.
	sendMutex sync.Mutex

	// ID is the server-assigned identifier for this connection, unique for
	// the lifetime of the process.
	ID string

	// Player associated with the connection, nil until a successful login.
	Player *data.Player

	// Debug controls whether the full contents of every message sent to this
	// client are dumped to stdout.
	Debug bool
}

func NewClient(connection net.Conn) *Client {
	ipAddr, port, err := net.SplitHostPort(connection.RemoteAddr().String())
	if err != nil {
		// Non-TCP connections (as used in tests) don't carry a port.
		ipAddr = connection.RemoteAddr().String()
	}

	return &Client{
		connection: connection,
		ipAddr:     ipAddr,
		port:       port,
		reader:     bufio.NewScanner(connection),
	}
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// LoggedIn returns whether the connection has resolved a player identity.
func (c *Client) LoggedIn() bool { return c.Player != nil }

// ErrConnectionClosed is returned by ReadMessage when the peer has closed
// the connection.
var ErrConnectionClosed = errors.New("connection closed by peer")

// ReadMessage blocks until the next full newline-delimited message has been
// received, returning the message bytes without the trailing delimiter.
func (c *Client) ReadMessage() ([]byte, error) {
	if !c.reader.Scan() {
		if err := c.reader.Err(); err != nil {
			return nil, err
		}
		return nil, ErrConnectionClosed
	}
	return c.reader.Bytes(), nil
}

// Send serializes message to JSON and writes it to the client followed by the
// message delimiter. Concurrent senders are serialized.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message for client %s: %w", c.ipAddr, err)
	}

	if c.Debug {
		debug.DumpMessage(os.Stdout, debug.DumpParams{
			Destination: c.ipAddr,
			Message:     message,
		})
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if _, err := c.connection.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send to client %s: %w", c.ipAddr, err)
	}
	return nil
}

// Close the underlying connection.
func (c *Client) Close() error {
	return c.connection.Close()
}
