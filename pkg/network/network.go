package network

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/ducktag/pkg/log"
	"nhooyr.io/websocket"
)

const (
	// DefaultWriteTimeout bounds a single write to one peer
	DefaultWriteTimeout = 5 * time.Second
	// MessageReadLimit is the largest message accepted from a client
	MessageReadLimit = 1 << 16
)

// Recorder receives a copy of every message the relay forwards.
type Recorder interface {
	Record(conn string, payload []byte) error
}

// RelayServer is a fan-out broadcaster. It forwards every message received
// on one connection, unmodified, to every other open connection. It has no
// knowledge of the game protocol.
type RelayServer struct {
	port          int
	tls           *TLSConfig
	staticDir     string
	clientManager *ClientManager
	recorder      Recorder
	writeTimeout  time.Duration
	logger        *log.Logger

	// connections tracks the running connection handlers, which
	// http.Server.Shutdown does not wait for
	connections sync.WaitGroup
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// NewRelayServerOptions contains options for creating a new RelayServer.
type NewRelayServerOptions struct {
	Port int
	TLS  *TLSConfig
	// StaticDir, if set, is served to plain HTTP requests on /
	StaticDir     string
	ClientManager *ClientManager
	// Recorder is optional
	Recorder     Recorder
	WriteTimeout time.Duration
	// Logger defaults to the package default logger
	Logger *log.Logger
}

func NewRelayServer(opts NewRelayServerOptions) *RelayServer {
	if opts.ClientManager == nil {
		opts.ClientManager = NewClientManager()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &RelayServer{
		port:          opts.Port,
		tls:           opts.TLS,
		staticDir:     opts.StaticDir,
		clientManager: opts.ClientManager,
		recorder:      opts.Recorder,
		writeTimeout:  opts.WriteTimeout,
		logger:        opts.Logger,
	}
}

// Broadcast writes payload as a text frame to every client except the sender.
// Failed writes are logged and dropped.
func (s *RelayServer) Broadcast(ctx context.Context, fromID string, payload []byte) {
	if s.recorder != nil {
		if err := s.recorder.Record(fromID, payload); err != nil {
			s.logger.Error("Failed to record message from %s: %v", fromID, err)
		}
	}

	for _, client := range s.clientManager.GetClients() {
		if client.ID == fromID {
			continue
		}
		if err := s.writeToClient(ctx, client, payload); err != nil {
			s.logger.Debug("Dropping message to client %s: %v", client.ID, err)
		}
	}
}

func (s *RelayServer) writeToClient(ctx context.Context, client *Client, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return client.WSConn.Write(ctx, websocket.MessageText, payload)
}
