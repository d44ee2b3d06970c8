package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mbrault/morpion/internal/core"
	"github.com/mbrault/morpion/internal/core/client"
	coredebug "github.com/mbrault/morpion/internal/core/debug"
)

// frontend implements the concurrent client connection logic.
//
// Messages are read from any connected clients and passed to a backend
// instance, abstracting the lower level connection details away from the
// Backends.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	connectedClients sync.Map
	connectionCount  int
	countMutex       sync.Mutex
}

// Start initializes the server backend and opens a TCP socket for the specified
// server. A blocking loop for accepting client connections is spun off in its
// own goroutine and added to the WaitGroup. Context cancellations will stop
// the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for client connections on the
// Address provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address: %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely
// responsible for accepting new connections and spinning off goroutines for
// the Backend to handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Infof("[%s] waiting for connections on %v", f.Backend.Identifier(), f.Address)

	connections := make(chan *net.TCPConn)
	go func() {
		for {
			// Poll until we can accept more clients.
			for f.clientCount() >= f.Config.MaxConnections {
				time.Sleep(time.Second)
			}

			connection, err := socket.AcceptTCP()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			connections <- connection
		}
	}()

	clientWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			_ = socket.Close()
			break handleLoop
		case connection := <-connections:
			clientWg.Add(1)
			// Note: If there is eventually a need to implement worker pooling rather than spawning
			// new goroutines for each client, this is where it should be implemented.
			go f.acceptClient(ctx, connection, clientWg)
		}
	}

	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	f.disconnectAll()
	clientWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptClient takes a connection and attempts to initiate a "session" by
// setting up the Client and sending the welcome message. If it succeeds, the
// goroutine moves into the message processing loop.
func (f *frontend) acceptClient(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()

	c := client.NewClient(connection)
	c.Debug = f.Config.Debugging.MessageLoggingEnabled

	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), c.IPAddr())

	if err := f.Backend.Handshake(c); err != nil {
		f.Logger.Errorf("Handshake() failed for client %s: %s", c.IPAddr(), err)
		_ = c.Close()
		return
	}

	f.trackClient(c)
	f.processMessages(ctx, c)
}

// processMessages starts a blocking loop dedicated to reading messages sent
// from a game client and only returns once the connection has closed.
func (f *frontend) processMessages(ctx context.Context, c *client.Client) {
	defer f.closeConnectionAndRecover(f.Backend.Identifier(), c)

	for {
		select {
		case <-ctx.Done():
			// For now just allow the deferred function to close the connection.
			return
		default:
		}

		data, err := c.ReadMessage()
		if errors.Is(err, client.ErrConnectionClosed) {
			return
		} else if err != nil {
			f.Logger.Warnf("[%s] read failed for client %s: %s", f.Backend.Identifier(), c.IPAddr(), err)
			return
		}

		if f.Config.Debugging.MessageLoggingEnabled {
			coredebug.DumpMessage(os.Stdout, coredebug.DumpParams{
				Source:  c.IPAddr(),
				Message: data,
			})
		}

		if err = f.Backend.Handle(ctx, c, data); err != nil {
			f.Logger.Warnf("error in client communication: %s", err)
			return
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics,
// disconnects the client, and removes them from the list regardless of the
// state of the connection.
func (f *frontend) closeConnectionAndRecover(serverName string, c *client.Client) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			c.IPAddr(), err, debug.Stack())
	}

	if err := c.Close(); err != nil {
		f.Logger.Debugf("failed to close client connection: %s", err)
	}

	f.untrackClient(c)
	f.Backend.Disconnected(c)

	f.Logger.Infof("[%s] disconnected client %s", serverName, c.IPAddr())
}

func (f *frontend) trackClient(c *client.Client) {
	f.connectedClients.Store(c.ID, c)

	f.countMutex.Lock()
	f.connectionCount++
	f.countMutex.Unlock()
}

func (f *frontend) untrackClient(c *client.Client) {
	if _, tracked := f.connectedClients.LoadAndDelete(c.ID); !tracked {
		return
	}

	f.countMutex.Lock()
	f.connectionCount--
	f.countMutex.Unlock()
}

func (f *frontend) clientCount() int {
	f.countMutex.Lock()
	defer f.countMutex.Unlock()
	return f.connectionCount
}

// disconnectAll closes every tracked connection, unblocking their read loops
// during shutdown.
func (f *frontend) disconnectAll() {
	f.connectedClients.Range(func(_, value interface{}) bool {
		_ = value.(*client.Client).Close()
		return true
	})
}
