package ftp

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// DataConnector is the passive-mode port pool: it reserves one port
// from a configured range per session, accepts exactly one client
// connection on it, and returns the port to the pool afterward.
type DataConnector struct {
	mu           sync.Mutex
	ports        []uint16
	inUse        map[uint16]uint64 // port -> owning session ID
	reservations map[uint64]*pasvReservation
	externalIP   net.IP
	logger       *slog.Logger
}

type pasvReservation struct {
	port uint16
	ln   net.Listener
}

// NewDataConnector builds a pool over the given ports. externalIP is
// advertised to clients in PASV/EPSV replies; if empty, it is resolved
// lazily via GetServerPublicIP.
func NewDataConnector(ports []uint16, externalIP string, logger *slog.Logger) *DataConnector {
	d := &DataConnector{
		ports:        ports,
		inUse:        make(map[uint16]uint64),
		reservations: make(map[uint64]*pasvReservation),
		logger:       logger,
	}
	if ip := net.ParseIP(externalIP); ip != nil {
		d.externalIP = ip
	}
	return d
}

// SetExternalIP overrides the address advertised to clients, e.g. once
// the real public IP is known after construction.
func (d *DataConnector) SetExternalIP(ip net.IP) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.externalIP = ip
}

// ExternalIP returns the address to advertise to clients.
func (d *DataConnector) ExternalIP() net.IP {
	if d.externalIP != nil {
		return d.externalIP
	}
	if ip, err := GetServerPublicIP(); err == nil {
		return ip
	}
	return net.IPv4(127, 0, 0, 1)
}

// Reserve binds a listening socket on a free port and arms it to call
// onAccept (with the accepted connection) or onError exactly once, from
// a connector-owned goroutine. The caller is responsible for getting
// that call safely onto its own goroutine (e.g. via a channel send).
func (d *DataConnector) Reserve(sessionID uint64, onAccept func(net.Conn), onError func(error)) (net.IP, int, error) {
	d.mu.Lock()
	if _, already := d.reservations[sessionID]; already {
		d.mu.Unlock()
		return nil, 0, fmt.Errorf("a passive listener is already reserved for this session")
	}
	var chosen uint16
	var ln net.Listener
	for _, p := range d.ports {
		if _, busy := d.inUse[p]; busy {
			continue
		}
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err != nil {
			continue
		}
		chosen, ln = p, l
		break
	}
	if ln == nil {
		d.mu.Unlock()
		return nil, 0, fmt.Errorf("no passive port available")
	}
	d.inUse[chosen] = sessionID
	d.reservations[sessionID] = &pasvReservation{port: chosen, ln: ln}
	d.mu.Unlock()

	go d.acceptOne(sessionID, ln, onAccept, onError)

	return d.ExternalIP(), int(chosen), nil
}

func (d *DataConnector) acceptOne(sessionID uint64, ln net.Listener, onAccept func(net.Conn), onError func(error)) {
	conn, err := ln.Accept()
	d.release(sessionID, ln)
	if err != nil {
		onError(err)
		return
	}
	onAccept(conn)
}

// Cancel tears down any pending reservation for sessionID that has not
// yet accepted a connection. Safe to call even if there is none.
func (d *DataConnector) Cancel(sessionID uint64) {
	d.mu.Lock()
	res, ok := d.reservations[sessionID]
	d.mu.Unlock()
	if !ok {
		return
	}
	res.ln.Close() // unblocks acceptOne with an error, which calls release
}

func (d *DataConnector) release(sessionID uint64, ln net.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if res, ok := d.reservations[sessionID]; ok && res.ln == ln {
		delete(d.reservations, sessionID)
		delete(d.inUse, res.port)
	}
	ln.Close()
}
