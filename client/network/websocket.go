package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/messages"
	"github.com/cbodonnell/ducktag/pkg/queue"
	"nhooyr.io/websocket"
)

const (
	// DefaultWriteTimeout bounds a single send
	DefaultWriteTimeout = 2 * time.Second
)

// ConnectionStatus is the state of the connection to the relay.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusErrored
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ConnectionHandler is notified of connection lifecycle changes.
// Callbacks run on the transport's goroutine.
type ConnectionHandler interface {
	OnOpen()
	OnClose()
	OnError(err error)
}

// WSClient maintains one websocket connection to the relay. Decoded
// events are pushed onto the message queue; malformed messages are dropped.
// There is no reconnect.
type WSClient struct {
	serverAddr   string
	messageQueue queue.Queue
	handler      ConnectionHandler
	writeTimeout time.Duration

	lock    sync.RWMutex
	conn    *websocket.Conn
	status  ConnectionStatus
	closing bool
}

// NewWSClientOptions contains options for creating a new WSClient.
type NewWSClientOptions struct {
	ServerAddr   string
	MessageQueue queue.Queue
	// Handler is optional
	Handler      ConnectionHandler
	WriteTimeout time.Duration
}

// NewWSClient creates a new WebSocket client.
func NewWSClient(opts NewWSClientOptions) *WSClient {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &WSClient{
		serverAddr:   opts.ServerAddr,
		messageQueue: opts.MessageQueue,
		handler:      opts.Handler,
		writeTimeout: opts.WriteTimeout,
	}
}

// SetHandler replaces the connection handler. It must be called before Connect.
func (c *WSClient) SetHandler(handler ConnectionHandler) {
	c.handler = handler
}

// Status returns the current connection status.
func (c *WSClient) Status() ConnectionStatus {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.status
}

// Connect establishes a connection to the relay.
func (c *WSClient) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	log.Info("Connecting to relay at %s", c.serverAddr)
	conn, _, err := websocket.Dial(ctx, c.serverAddr, nil)
	if err != nil {
		err = fmt.Errorf("failed to connect to relay: %v", err)
		c.setStatus(StatusErrored)
		if c.handler != nil {
			c.handler.OnError(err)
		}
		return err
	}
	conn.SetReadLimit(messages.MessageBufferSize * 16)

	c.lock.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.closing = false
	c.lock.Unlock()

	if c.handler != nil {
		c.handler.OnOpen()
	}
	return nil
}

// HandleMessages reads from the relay until the connection ends or ctx is done.
func (c *WSClient) HandleMessages(ctx context.Context) error {
	c.lock.RLock()
	conn := c.conn
	c.lock.RUnlock()
	if conn == nil {
		return &ErrNotConnected{}
	}

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			return c.handleReadError(ctx, err)
		}
		c.handleMessage(b)
	}
}

// Run connects and handles messages until the connection ends.
func (c *WSClient) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.HandleMessages(ctx)
}

func (c *WSClient) handleMessage(b []byte) {
	event, err := messages.DeserializeEvent(b)
	if err != nil {
		log.Debug("Dropping message from relay: %v", err)
		return
	}
	log.Trace("Received %s from relay", event.Type())
	if err := c.messageQueue.Enqueue(event); err != nil {
		log.Error("Failed to enqueue message: %v", err)
	}
}

func (c *WSClient) handleReadError(ctx context.Context, err error) error {
	c.lock.Lock()
	c.conn = nil
	closing := c.closing
	c.lock.Unlock()

	status := websocket.CloseStatus(err)
	if closing || ctx.Err() != nil || status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		c.setStatus(StatusDisconnected)
		log.Info("Connection to relay closed")
		if c.handler != nil {
			c.handler.OnClose()
		}
		if closing || ctx.Err() != nil {
			return nil
		}
		return &ErrConnectionClosedByServer{}
	}

	c.setStatus(StatusErrored)
	log.Error("Failed to read from relay: %v", err)
	if c.handler != nil {
		c.handler.OnError(err)
	}
	return fmt.Errorf("failed to read from relay: %v", err)
}

// Send writes an event to the relay. Events are dropped silently when not
// connected; write errors are logged and never retried.
func (c *WSClient) Send(event messages.Event) {
	c.lock.RLock()
	conn := c.conn
	c.lock.RUnlock()
	if conn == nil {
		log.Trace("Not connected, dropping %s", event.Type())
		return
	}

	b, err := messages.SerializeEvent(event)
	if err != nil {
		log.Error("Failed to serialize %s: %v", event.Type(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		log.Error("Failed to write %s to relay: %v", event.Type(), err)
	}
}

// Close closes the connection to the relay.
func (c *WSClient) Close() error {
	c.lock.Lock()
	conn := c.conn
	c.conn = nil
	c.closing = true
	c.lock.Unlock()
	if conn == nil {
		log.Warn("WebSocket connection is already closed")
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close connection: %v", err)
	}
	return nil
}

func (c *WSClient) setStatus(status ConnectionStatus) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.status = status
}
