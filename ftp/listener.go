package ftp

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/telebroad/ftpd/filesystem"
	"github.com/telebroad/ftpd/filters"
	"github.com/telebroad/ftpd/users"
)

// Server binds one TCP listener and hands each accepted connection to
// its own ControlConnection, on its own goroutine. Mirrors the
// teacher's ftp.Server surface, minus the TLS/SFTP listeners this
// build doesn't carry.
type Server struct {
	addr  string
	state *FtpState

	// PasvMinPort/PasvMaxPort bound the passive port range. Set these
	// before calling TryListenAndServe; changing them afterward has no
	// effect.
	PasvMinPort int
	PasvMaxPort int

	mu       sync.Mutex
	ln       net.Listener
	done     chan struct{}
	closeErr error
}

// NewServer builds a Server against addr (host:port), backed by fsys
// and us. Defaults: 15s idle timeout, 8KB max control line, 8 executor
// workers, ASCII+Zlib filters. Use the setters below, or mutate
// Server.state.Config directly before TryListenAndServe, to change
// them.
func NewServer(addr string, fsys filesystem.FS, us users.Users) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("ftp: listen address required")
	}
	cfg := Config{
		Hostname: "ftpd",
		Timeout:  15 * time.Second,
		MaxLine:  8192,
	}
	logger := slog.Default()
	chain := filters.NewChain(filters.ASCII{}, filters.Zlib{})
	state := NewFtpState(cfg, fsys, us, chain, logger)
	return &Server{
		addr:  addr,
		state: state,
		done:  make(chan struct{}),
	}, nil
}

// SetLogger replaces the logger used for this server and every
// connection it accepts afterward. The passive-port pool keeps the
// logger it was built with unless TryListenAndServe rebuilds the pool
// for a PasvMinPort/PasvMaxPort range.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.state.Logger = logger
}

// Logger returns the server's current logger.
func (s *Server) Logger() *slog.Logger {
	return s.state.Logger
}

// SetPublicServerIPv4 overrides the address advertised in PASV/EPSV
// replies.
func (s *Server) SetPublicServerIPv4(ip string) error {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("ftp: %q is not a valid IPv4/IPv6 address", ip)
	}
	s.state.Config.ExternalIP = ip
	s.state.Pasv.SetExternalIP(parsed)
	return nil
}

// SetTimeout overrides the idle control-connection timeout; 0 disables
// it.
func (s *Server) SetTimeout(d time.Duration) {
	s.state.Config.Timeout = d
}

// SetGuest enables or disables anonymous login.
func (s *Server) SetGuest(enabled bool) {
	s.state.Config.Guest = enabled
}

// Filters returns the data filter chain so callers can add or remove
// filters before serving.
func (s *Server) Filters() filters.Applicator {
	return s.state.Filters
}

// Registry exposes the live-session/counter registry, e.g. for a
// status endpoint.
func (s *Server) Registry() *Registry {
	return s.state.Registry
}

// Addr returns the listener's bound address, or nil before
// TryListenAndServe has started listening. Useful when addr is
// ":0" and the caller needs the chosen port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Suspend stops new control connections from logging in without
// closing the listener, used to drain before a restart.
func (s *Server) Suspend(suspended bool) {
	s.state.Suspended.Store(suspended)
}

// TryListenAndServe binds the listener, starts accepting in the
// background, and returns nil if the listener is still alive after
// timeout — mirroring the teacher's "Try" convention of surfacing an
// immediate bind failure synchronously while treating steady-state
// serving as a background concern.
func (s *Server) TryListenAndServe(timeout time.Duration) error {
	ports := s.state.Config.PasvPorts
	if s.PasvMaxPort > 0 && s.PasvMaxPort >= s.PasvMinPort {
		ports = make([]uint16, 0, s.PasvMaxPort-s.PasvMinPort+1)
		for p := s.PasvMinPort; p <= s.PasvMaxPort; p++ {
			ports = append(ports, uint16(p))
		}
		s.state.Config.PasvPorts = ports
		s.state.Pasv = NewDataConnector(ports, s.state.Config.ExternalIP, s.state.Logger.With("module", "pasv"))
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("ftp: listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go s.acceptLoop(ln)

	select {
	case <-s.done:
		return s.closeErr
	case <-time.After(timeout):
		return nil
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.state.Logger.Error("accept failed", "err", err)
			return
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	id := s.state.Registry.NextID()
	logger := s.state.Logger.With("session", id, "remote", conn.RemoteAddr())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("control connection panicked", "recovered", r)
			conn.Close()
		}
	}()

	session := NewSession(id, conn.RemoteAddr(), conn.LocalAddr())
	s.state.Registry.Add(session)
	cc := NewControlConnection(conn, s.state, session, logger)
	cc.Serve()
}

// Close stops accepting new connections, recording cause as the reason
// TryListenAndServe's caller sees if it is still blocked waiting.
// Connections already being served finish on their own.
func (s *Server) Close(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	default:
	}
	s.closeErr = cause
	close(s.done)
	s.state.Executor.Close()
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}
