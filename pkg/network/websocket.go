package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
)

// Router returns the relay's HTTP routes: the websocket endpoint on / and a health check.
func (s *RelayServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	if s.staticDir != "" {
		static := http.FileServer(http.Dir(s.staticDir))
		r.MatcherFunc(isWebSocketUpgrade).HandlerFunc(s.handleWS)
		r.PathPrefix("/").Handler(static)
	} else {
		r.HandleFunc("/", s.handleWS)
	}
	return r
}

// Start listens on the configured port and serves the relay until ctx is cancelled.
func (s *RelayServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the relay on ln until ctx is cancelled. It returns once every
// connection handler has finished, so nothing is recorded after it returns.
func (s *RelayServer) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:     s.Router(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
		close(shutdownDone)
	}()

	var serve func() error
	if s.tls != nil {
		s.logger.Info("Relay listening on %s with TLS", ln.Addr())
		serve = func() error {
			return server.ServeTLS(ln, s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		s.logger.Info("Relay listening on %s", ln.Addr())
		serve = func() error {
			return server.Serve(ln)
		}
	}
	if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay server error: %v", err)
	}

	<-shutdownDone
	s.connections.Wait()
	s.logger.Info("Relay closed")
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "OK"}); err != nil {
		log.Error("Failed to encode health response: %v", err)
	}
}

func isWebSocketUpgrade(r *http.Request, _ *mux.RouteMatch) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func (s *RelayServer) handleWS(w http.ResponseWriter, r *http.Request) {
	s.connections.Add(1)
	defer s.connections.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("Failed to accept WebSocket connection: %v", err)
		return
	}
	s.handleWSConnection(r.Context(), conn)
}

// handleWSConnection relays messages from one connection until it closes.
func (s *RelayServer) handleWSConnection(ctx context.Context, conn *websocket.Conn) {
	clientID, err := s.clientManager.ConnectClient(conn)
	if err != nil {
		s.logger.Error("Failed to register client: %v", err)
		conn.Close(websocket.StatusInternalError, "")
		return
	}
	logger := s.logger.Named(clientID)
	logger.Info("Client connected (%d open)", s.clientManager.Count())

	defer func() {
		s.clientManager.DisconnectClient(clientID)
		conn.Close(websocket.StatusNormalClosure, "")
		logger.Info("Client disconnected")
	}()

	conn.SetReadLimit(MessageReadLimit)
	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.Debug("Error reading from client: %v", err)
			}
			return
		}
		logger.Trace("Relaying %d bytes", len(payload))
		s.Broadcast(ctx, clientID, payload)
	}
}
