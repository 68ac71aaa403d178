package ftp

import (
	"io"
	"net"
	"net/netip"
	"sync/atomic"
	"time"
)

// DataOpener identifies which side of a future data connection is
// expected to listen.
type DataOpener int

const (
	OpenerNone DataOpener = iota
	OpenerPASV
	OpenerPORT
)

// TransferMode identifies what a DataConnection should do with the
// bytes it pumps once opened.
type TransferMode int

const (
	TransferNone TransferMode = iota
	TransferRetr
	TransferStor
	TransferStou
	TransferList
)

// Session is the mutable per-control-connection protocol state. It is
// owned by exactly one ControlConnection: every field except the byte
// counters is touched only from that connection's goroutine or from a
// command executing on its behalf (at most one such command runs at a
// time). The byte counters are bumped directly by the DataConnection
// that is streaming for this session, so they are atomic.
type Session struct {
	ID        uint64
	Remote    net.Addr
	Local     net.Addr
	CreatedAt time.Time

	Username string
	Password string
	LoggedIn bool
	Guest    bool
	Home     string

	CurrentDir string
	DataType   byte // 'A' or 'I'
	DataMode   byte // 'S'
	DataStruct byte // 'F'

	DataOpener   DataOpener
	DataEndpoint *net.TCPAddr // PORT/EPRT target

	TransferMode TransferMode
	DataReader   io.ReadCloser // source for RETR/LIST/NLST/MLSD
	DataWriter   io.WriteCloser // sink for STOR/APPE/STOU
	DataFilename string
	DataMarker   int64

	DataConn *DataConnection // live data connection, if any

	InterruptState bool
	Poisoned       bool

	UploadedBytes   atomic.Uint64
	DownloadedBytes atomic.Uint64

	Attributes map[string]any
}

// NewSession constructs a fresh, unauthenticated session for an
// accepted control connection.
func NewSession(id uint64, remote, local net.Addr) *Session {
	return &Session{
		ID:         id,
		Remote:     remote,
		Local:      local,
		CreatedAt:  time.Now(),
		CurrentDir: "/",
		DataType:   'I',
		DataMode:   'S',
		DataStruct: 'F',
		Attributes: make(map[string]any),
	}
}

// Login marks the session authenticated and resolves CurrentDir to the
// account's home directory.
func (s *Session) Login(username string, guest bool, home string) {
	s.Username = username
	s.LoggedIn = true
	s.Guest = guest
	if home == "" {
		home = "/"
	}
	s.Home = home
	s.CurrentDir = home
}

// ClearDataOpener resets the fields a PASV/PORT arms, without touching
// an in-progress transfer.
func (s *Session) ClearDataOpener() {
	s.DataOpener = OpenerNone
	s.DataEndpoint = nil
}

// ClearTransfer drops the transfer-arming fields after a transfer
// outcome has been handled.
func (s *Session) ClearTransfer() {
	s.TransferMode = TransferNone
	s.DataReader = nil
	s.DataWriter = nil
	s.DataFilename = ""
	s.DataConn = nil
}

// RemoteIP returns the client's IP, or the zero value if unavailable.
func (s *Session) RemoteIP() net.IP {
	if tcp, ok := s.Remote.(*net.TCPAddr); ok {
		return tcp.IP
	}
	return nil
}

// RemoteNetipAddr is RemoteIP as a netip.Addr, for IP-allowlist checks.
func (s *Session) RemoteNetipAddr() netip.Addr {
	ip := s.RemoteIP()
	if ip == nil {
		return netip.Addr{}
	}
	addr, _ := netip.AddrFromSlice(ip.To4())
	if !addr.IsValid() {
		addr, _ = netip.AddrFromSlice(ip.To16())
	}
	return addr
}
