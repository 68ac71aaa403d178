package ftp

import (
	"errors"
	"io"
	"net"
	"sync/atomic"
)

// TransferOutcome is how a DataConnection's pump loop ended.
type TransferOutcome int

const (
	OutcomeSuccess TransferOutcome = iota
	OutcomeFailed
	OutcomeAborted
)

// DataReport is what a DataConnection sends back to its owning
// ControlConnection when it stops.
type DataReport struct {
	Outcome TransferOutcome
	Bytes   int64
	Err     error
}

const dataConnBufSize = 8192

// DataConnection pumps bytes between a socket and the session's
// transfer channel for the duration of one transfer, then reports how
// it ended.
type DataConnection struct {
	conn    net.Conn
	session *Session
	mode    TransferMode
	reader  io.ReadCloser
	writer  io.WriteCloser

	aborted atomic.Bool
}

// NewDataConnection wraps an accepted or dialed socket for one
// transfer. Exactly one of reader/writer is non-nil depending on mode.
func NewDataConnection(conn net.Conn, session *Session, mode TransferMode, reader io.ReadCloser, writer io.WriteCloser) *DataConnection {
	return &DataConnection{conn: conn, session: session, mode: mode, reader: reader, writer: writer}
}

// Abort stops the pump loop as soon as its current blocking call
// returns, and forces the outcome to Aborted rather than Failed.
func (d *DataConnection) Abort() {
	d.aborted.Store(true)
	d.conn.Close()
}

// Run blocks until ready is signaled (the ControlConnection hands this
// off only after the preliminary 150 has been written to the control
// socket, closing the 150-before-226 ordering race), pumps bytes, and
// sends exactly one DataReport to report.
func (d *DataConnection) Run(ready <-chan struct{}, report chan<- DataReport) {
	<-ready
	var n int64
	var err error
	switch d.mode {
	case TransferRetr, TransferList:
		n, err = d.pumpToClient()
		d.session.DownloadedBytes.Add(uint64(n))
	case TransferStor, TransferStou:
		n, err = d.pumpFromClient()
		d.session.UploadedBytes.Add(uint64(n))
	default:
		err = errors.New("data connection armed with no transfer mode")
	}
	d.conn.Close()
	if d.reader != nil {
		d.reader.Close()
	}
	if d.writer != nil {
		d.writer.Close()
	}

	outcome := OutcomeSuccess
	switch {
	case d.aborted.Load():
		outcome = OutcomeAborted
	case err != nil:
		outcome = OutcomeFailed
	}
	report <- DataReport{Outcome: outcome, Bytes: n, Err: err}
}

func (d *DataConnection) pumpToClient() (int64, error) {
	buf := make([]byte, dataConnBufSize)
	var total int64
	for {
		nr, rerr := d.reader.Read(buf)
		if nr > 0 {
			if _, werr := d.conn.Write(buf[:nr]); werr != nil {
				return total, werr
			}
			total += int64(nr)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, rerr
		}
	}
}

func (d *DataConnection) pumpFromClient() (int64, error) {
	buf := make([]byte, dataConnBufSize)
	var total int64
	for {
		nr, rerr := d.conn.Read(buf)
		if nr > 0 {
			nw, werr := d.writer.Write(buf[:nr])
			if werr != nil {
				return total, werr
			}
			if nw != nr {
				return total, io.ErrShortWrite
			}
			total += int64(nr)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, rerr
		}
	}
}
