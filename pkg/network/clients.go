package network

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const (
	// ClientEventChannelSize represents the size of the client event channel
	ClientEventChannelSize = 1024
)

// Client represents a connection to the relay
type Client struct {
	ID     string
	WSConn *websocket.Conn
}

// ClientEvent represents an event that happened to a client
type ClientEvent struct {
	ClientID string
	Type     ClientEventType
}

// ClientEventType represents the type of a client event
type ClientEventType int

const (
	ClientEventTypeConnect ClientEventType = iota
	ClientEventTypeDisconnect
)

func (t ClientEventType) String() string {
	switch t {
	case ClientEventTypeConnect:
		return "connect"
	case ClientEventTypeDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// ClientManager tracks the open relay connections
type ClientManager struct {
	clients     map[string]*Client
	clientsLock sync.RWMutex
	// clientEventChan is optional; events are dropped when it is full
	clientEventChan chan ClientEvent
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:         make(map[string]*Client),
		clientEventChan: make(chan ClientEvent, ClientEventChannelSize),
	}
}

// GetClientEventChan returns a one-way channel for receiving client events
func (cm *ClientManager) GetClientEventChan() <-chan ClientEvent {
	return cm.clientEventChan
}

// GetClients returns a snapshot of all connected clients.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

// ConnectClient registers a new connection and returns its ID
func (cm *ClientManager) ConnectClient(conn *websocket.Conn) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate client ID: %v", err)
	}

	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	clientID := id.String()
	cm.clients[clientID] = &Client{
		ID:     clientID,
		WSConn: conn,
	}
	cm.emit(ClientEvent{ClientID: clientID, Type: ClientEventTypeConnect})
	return clientID, nil
}

// DisconnectClient removes a client from the manager
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if _, ok := cm.clients[clientID]; !ok {
		return
	}
	delete(cm.clients, clientID)
	cm.emit(ClientEvent{ClientID: clientID, Type: ClientEventTypeDisconnect})
}

func (cm *ClientManager) Exists(clientID string) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// emit must be called with the lock held
func (cm *ClientManager) emit(event ClientEvent) {
	select {
	case cm.clientEventChan <- event:
	default:
	}
}
