package socket

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Handler receives each framed message. The server never calls it
// concurrently, so implementations need no locking of their own.
type Handler interface {
	HandleIncomingMessage(message string)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(message string)

// HandleIncomingMessage calls f(message).
func (f HandlerFunc) HandleIncomingMessage(message string) { f(message) }

// Server accepts IDE connections and feeds their messages to a Handler.
type Server struct {
	network string
	address string
	handler Handler
	logger  *slog.Logger

	listener net.Listener

	dispatchMu sync.Mutex // serializes handler calls across connections

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a server for network ("tcp" or "unix") and address.
func NewServer(network, address string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		network: network,
		address: address,
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins listening. For unix sockets a leftover socket file is probed
// first: if something answers, Start fails; otherwise the stale file is
// removed before binding.
func (s *Server) Start() error {
	switch s.network {
	case "tcp", "tcp4", "tcp6":
	case "unix":
		if _, err := os.Stat(s.address); err == nil {
			conn, err := net.DialTimeout("unix", s.address, 500*time.Millisecond)
			if err == nil {
				conn.Close()
				return fmt.Errorf("bridge already running at %s", s.address)
			}
			os.Remove(s.address)
		}
	default:
		return fmt.Errorf("listen: unsupported network %q", s.network)
	}

	ln, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.logger.Info("ide listener started", "network", s.network, "address", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every open connection, waits for the
// connection goroutines and removes a unix socket file. Safe to call more
// than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.connsMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connsMu.Unlock()
		s.wg.Wait()
		if s.network == "unix" && s.listener != nil {
			os.Remove(s.address)
		}
	})
	return nil
}

// Addr returns the bound address, which differs from the configured one
// when a tcp port of 0 was requested.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn("accept failed", "error", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// track registers conn unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Debug("ide connected", "remote", remote)

	scanner := newScanner(conn)
	for scanner.Scan() {
		msg := scanner.Text()
		if strings.TrimSpace(msg) == "" {
			continue
		}
		s.Dispatch(msg)
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-s.done:
		default:
			s.logger.Warn("ide connection read failed", "remote", remote, "error", err)
		}
	}
	s.logger.Debug("ide disconnected", "remote", remote)
}

// Dispatch hands msg to the handler under the same lock as socket traffic,
// so in-process producers are serialized with IDE messages.
func (s *Server) Dispatch(msg string) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.HandleIncomingMessage(msg)
}
