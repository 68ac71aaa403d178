package ftp

import (
	"fmt"
	"net"
	"time"
)

// DialActive dials the client's PORT/EPRT endpoint for an active-mode
// data connection. On success onConnected receives the socket; on
// failure onError receives the error. Both are called from a goroutine
// DialActive starts, so callers that touch Session state must hop back onto
// their own event loop (e.g. via a channel send) before doing so.
func DialActive(endpoint *net.TCPAddr, timeout time.Duration, onConnected func(net.Conn), onError func(error)) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		conn, err := net.DialTimeout("tcp", endpoint.String(), timeout)
		if err != nil {
			onError(fmt.Errorf("dialing active data connection %s: %w", endpoint, err))
			return
		}
		onConnected(conn)
	}()
}
