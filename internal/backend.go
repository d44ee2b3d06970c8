package internal

import (
	"context"

	"github.com/mbrault/morpion/internal/core/client"
)

// Backend is an interface for a server that handles a specific set of client
// interactions, leaving the connection handling to the frontend.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// Handshake performs any initialization necessary to begin communicating
	// with the client, such as assigning its connection id and sending a
	// welcome message.
	Handshake(c *client.Client) error

	// Handle is the main entry point for processing client messages. It's
	// responsible for generally handling all messages from a client as well
	// as sending any responses.
	Handle(ctx context.Context, c *client.Client, data []byte) error

	// Disconnected is called exactly once after a client's read loop has
	// ended so the Backend can release anything it holds for the connection.
	Disconnected(c *client.Client)
}
