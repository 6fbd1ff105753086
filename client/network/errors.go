package network

// ErrConnectionClosedByServer is returned when the relay closes the connection
type ErrConnectionClosedByServer struct{}

func (e *ErrConnectionClosedByServer) Error() string {
	return "connection closed by server"
}

// ErrNotConnected is returned when reading before a connection is established
type ErrNotConnected struct{}

func (e *ErrNotConnected) Error() string {
	return "not connected"
}
