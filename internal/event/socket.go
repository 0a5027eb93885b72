package event

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SocketServer broadcasts events to UI clients over a Unix socket as
// newline-delimited JSON. It implements Sink, so it can be wired
// straight into the scheduler's fanout.
type SocketServer struct {
	path     string
	log      *zap.SugaredLogger
	listener net.Listener

	mu      sync.RWMutex
	clients map[net.Conn]bool

	done chan struct{}
}

// envelope is the wire format for one event.
type envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewSocketServer creates a server that will listen at path.
func NewSocketServer(path string, log *zap.SugaredLogger) *SocketServer {
	return &SocketServer{
		path:    path,
		log:     log.Named("socket"),
		clients: make(map[net.Conn]bool),
		done:    make(chan struct{}),
	}
}

// Start begins listening for UI connections.
func (s *SocketServer) Start() error {
	os.Remove(s.path)

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = listener
	os.Chmod(s.path, 0700)

	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all client connections.
func (s *SocketServer) Stop() {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[net.Conn]bool)
	s.mu.Unlock()

	os.Remove(s.path)
}

// Emit broadcasts one event to every connected client. A client that
// cannot be written to is dropped; delivery is best-effort.
func (s *SocketServer) Emit(event string, payload any) {
	data, err := json.Marshal(envelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		s.log.Warnw("marshal event", "event", event, "error", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if _, err := conn.Write(data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *SocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *SocketServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.Warnw("accept error", "error", err)
				continue
			}
		}

		s.mu.Lock()
		s.clients[conn] = true
		s.mu.Unlock()

		s.log.Infow("client connected", "total", s.ClientCount())
		go s.drainClient(conn)
	}
}

// drainClient reads and discards inbound lines so a client that talks
// back does not fill its connection buffer, and notices disconnects.
func (s *SocketServer) drainClient(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
		s.log.Infow("client disconnected", "total", s.ClientCount())
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
	}
}
