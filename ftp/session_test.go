package ftp

import (
	"net"
	"testing"
)

func newTestSession() *Session {
	remote := &net.TCPAddr{IP: net.ParseIP("203.0.113.7"), Port: 54321}
	local := &net.TCPAddr{IP: net.ParseIP("198.51.100.1"), Port: 21}
	return NewSession(1, remote, local)
}

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession()
	if s.CurrentDir != "/" {
		t.Errorf("CurrentDir = %q, want %q", s.CurrentDir, "/")
	}
	if s.DataType != 'I' {
		t.Errorf("DataType = %q, want 'I'", s.DataType)
	}
	if s.LoggedIn {
		t.Error("LoggedIn = true for a fresh session")
	}
	if s.Attributes == nil {
		t.Error("Attributes map is nil")
	}
}

func TestSessionLoginSetsHome(t *testing.T) {
	s := newTestSession()
	s.Login("alice", false, "/home/alice")
	if !s.LoggedIn {
		t.Fatal("LoggedIn = false after Login")
	}
	if s.CurrentDir != "/home/alice" {
		t.Errorf("CurrentDir = %q, want %q", s.CurrentDir, "/home/alice")
	}
	if s.Guest {
		t.Error("Guest = true for a non-guest login")
	}
}

func TestSessionLoginEmptyHomeDefaultsToRoot(t *testing.T) {
	s := newTestSession()
	s.Login("anonymous", true, "")
	if s.CurrentDir != "/" {
		t.Errorf("CurrentDir = %q, want %q", s.CurrentDir, "/")
	}
	if !s.Guest {
		t.Error("Guest = false for a guest login")
	}
}

func TestSessionClearDataOpener(t *testing.T) {
	s := newTestSession()
	s.DataOpener = OpenerPASV
	s.DataEndpoint = &net.TCPAddr{}
	s.ClearDataOpener()
	if s.DataOpener != OpenerNone {
		t.Errorf("DataOpener = %v, want OpenerNone", s.DataOpener)
	}
	if s.DataEndpoint != nil {
		t.Error("DataEndpoint not cleared")
	}
}

func TestSessionClearTransfer(t *testing.T) {
	s := newTestSession()
	s.TransferMode = TransferRetr
	s.DataFilename = "a.txt"
	s.ClearTransfer()
	if s.TransferMode != TransferNone {
		t.Errorf("TransferMode = %v, want TransferNone", s.TransferMode)
	}
	if s.DataFilename != "" {
		t.Error("DataFilename not cleared")
	}
	if s.DataReader != nil || s.DataWriter != nil || s.DataConn != nil {
		t.Error("transfer fields not fully cleared")
	}
}

func TestSessionRemoteIP(t *testing.T) {
	s := newTestSession()
	ip := s.RemoteIP()
	if ip == nil || !ip.Equal(net.ParseIP("203.0.113.7")) {
		t.Errorf("RemoteIP() = %v, want 203.0.113.7", ip)
	}
}

func TestSessionRemoteNetipAddr(t *testing.T) {
	s := newTestSession()
	addr := s.RemoteNetipAddr()
	if !addr.IsValid() {
		t.Fatal("RemoteNetipAddr() returned an invalid address")
	}
	if addr.String() != "203.0.113.7" {
		t.Errorf("RemoteNetipAddr() = %v, want 203.0.113.7", addr)
	}
}
