package ftp

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/telebroad/ftpd/filters"
	"github.com/telebroad/ftpd/tools"
)

var errLineTooLong = errors.New("control line exceeds the maximum length")

// execResult is what a dispatched command hands back once its handler
// has run on an Executor worker.
type execResult struct {
	result HandlerResult
}

// ControlConnection is the per-client control-socket state machine
// (spec §4.6). Every field below is touched only from Serve's own
// goroutine: incoming lines, executor completions, data-connection
// accept/dial/report events, and idle-timer fires all funnel through
// one select loop, which is what keeps Session single-writer.
type ControlConnection struct {
	conn   net.Conn
	state  *FtpState
	session *Session
	logger *slog.Logger

	brw *tools.BufLogReadWriter

	lines   chan string
	readErr chan error

	execResults chan execResult

	dataAccept chan net.Conn
	dataErr    chan error
	dataReport chan DataReport

	pendingLines  []string
	cmdBusy       bool
	pendingSocket net.Conn
	dialing       bool
}

// NewControlConnection wraps an accepted socket. Call Serve to run it;
// Serve blocks until the connection is done.
func NewControlConnection(conn net.Conn, state *FtpState, session *Session, logger *slog.Logger) *ControlConnection {
	return &ControlConnection{
		conn:        conn,
		state:       state,
		session:     session,
		logger:      logger,
		brw:         tools.NewBufLogReadWriter(conn, logger.With("stream", "wire")),
		lines:       make(chan string),
		readErr:     make(chan error, 1),
		execResults: make(chan execResult, 1),
		dataAccept:  make(chan net.Conn, 1),
		dataErr:     make(chan error, 1),
		dataReport:  make(chan DataReport, 1),
	}
}

// Serve runs the connection's state machine to completion.
func (cc *ControlConnection) Serve() {
	defer cc.cleanup()

	if cc.state.Suspended.Load() {
		cc.sendReply(NewReply(StatusServiceNotAvailable, "Service not available, closing control connection."))
		return
	}
	cc.sendReply(NewReplyf(StatusServiceReadyForNewUser, "%s FTP server ready.", cc.state.Config.Hostname))

	go cc.readLoop()

	var idle *time.Timer
	var idleC <-chan time.Time
	if cc.state.Config.Timeout > 0 {
		idle = time.NewTimer(cc.state.Config.Timeout)
		idleC = idle.C
		defer idle.Stop()
	}

	for {
		select {
		case line := <-cc.lines:
			if idle != nil {
				idle.Reset(cc.state.Config.Timeout)
			}
			cc.pendingLines = append(cc.pendingLines, line)
			cc.dispatchNext()

		case err := <-cc.readErr:
			if errors.Is(err, errLineTooLong) {
				cc.sendReply(NewReply(StatusSyntaxError, "Command line too long."))
			}
			return

		case res := <-cc.execResults:
			cc.cmdBusy = false
			cc.applyResult(res.result)
			cc.dispatchNext()

		case conn := <-cc.dataAccept:
			cc.dialing = false
			cc.pendingSocket = conn
			cc.tryStartTransfer()

		case err := <-cc.dataErr:
			cc.dialing = false
			cc.onDataOpenError(err)

		case report := <-cc.dataReport:
			cc.onDataReport(report)
			cc.dispatchNext()

		case <-idleC:
			if cc.cmdBusy || cc.session.DataConn != nil {
				idle.Reset(cc.state.Config.Timeout)
				continue
			}
			cc.sendReply(NewReply(StatusServiceNotAvailable, "Idle timeout, closing control connection."))
			return
		}

		if cc.session.Poisoned && !cc.cmdBusy && cc.session.DataConn == nil {
			return
		}
	}
}

func (cc *ControlConnection) cleanup() {
	cc.state.Pasv.Cancel(cc.session.ID)
	if cc.session.DataConn != nil {
		cc.session.DataConn.Abort()
	}
	cc.conn.Close()
	cc.state.Registry.Remove(cc.session)
	cc.logger.Debug("control connection closed", "session", cc.session.ID)
}

// readLoop feeds complete CRLF-terminated lines (or a terminal error)
// to the connection's own goroutine. It never touches Session.
func (cc *ControlConnection) readLoop() {
	for {
		line, err := cc.readLine()
		if err != nil {
			cc.readErr <- err
			return
		}
		cc.lines <- line
	}
}

func (cc *ControlConnection) readLine() (string, error) {
	maxLine := cc.state.Config.MaxLine
	buf := make([]byte, 0, 128)
	for {
		b, err := cc.brw.ReadByte()
		if err != nil {
			return "", err
		}
		if len(buf) >= maxLine {
			return "", errLineTooLong
		}
		buf = append(buf, b)
		if b == '\n' {
			return string(buf), nil
		}
	}
}

// dispatchNext pops and runs lines from the pending queue, stopping
// when a command is already in flight or the head of the queue must
// wait out an interrupt.
func (cc *ControlConnection) dispatchNext() {
	for !cc.cmdBusy && len(cc.pendingLines) > 0 {
		line := cc.pendingLines[0]
		verb, param := cc.state.Factory.Parse(line)
		spec, ok := cc.state.Factory.Lookup(verb)
		if !ok {
			cc.pendingLines = cc.pendingLines[1:]
			cc.sendReply(NewReplyf(StatusCommandNotImplementedForParam, "%s not implemented.", verb))
			continue
		}
		if cc.session.InterruptState && !spec.Interrupt {
			return // wait at the head of the queue until the interrupt clears
		}
		cc.pendingLines = cc.pendingLines[1:]
		if spec.LoggedIn && !cc.session.LoggedIn {
			cc.sendReply(NewReply(StatusNotLoggedIn, "Not logged in."))
			continue
		}
		cc.cmdBusy = true
		cc.submit(spec, param)
		return
	}
}

func (cc *ControlConnection) submit(spec CommandSpec, param string) {
	cc.state.Executor.Submit(func() {
		result := spec.Handler(cc, param)
		cc.execResults <- execResult{result: result}
	})
}

// applyResult runs a handler's Apply (the only place besides Serve's
// own goroutine allowed to mutate Session) and then writes its Reply.
func (cc *ControlConnection) applyResult(result HandlerResult) {
	if result.Apply != nil {
		result.Apply(cc)
	}
	if result.Reply.Noop {
		return
	}
	cc.writeReplyChain(result.Reply, false)
}

// sendReply writes a one-off reply (not tied to a dispatched command)
// and applies the preliminary-reply interrupt-state rule.
func (cc *ControlConnection) sendReply(r Reply) {
	cc.writeReplyChain(r, false)
}

func (cc *ControlConnection) writeReplyChain(r Reply, clears bool) {
	for cur := &r; cur != nil; cur = cur.Next {
		cc.writeReply(*cur)
		if cur.IsPreliminary() {
			cc.session.InterruptState = true
		} else if clears {
			cc.session.InterruptState = false
		}
	}
}

func (cc *ControlConnection) writeReply(r Reply) {
	if _, err := cc.brw.Write(r.Serialize()); err != nil {
		cc.logger.Debug("writing reply failed", "err", err)
	}
}

// filterContext builds the filters.Context for the session's current
// TYPE and attributes.
func (cc *ControlConnection) filterContext() filters.Context {
	return filters.Context{DataType: cc.session.DataType, Attrs: cc.session.Attributes}
}

// tryStartTransfer fires once both a transfer has been armed
// (TransferMode set, DataReader/DataWriter populated) and a data
// socket is available, either already accepted/dialed or freshly so.
func (cc *ControlConnection) tryStartTransfer() {
	s := cc.session
	if s.TransferMode == TransferNone {
		return
	}
	if cc.pendingSocket != nil {
		conn := cc.pendingSocket
		cc.pendingSocket = nil
		cc.beginPump(conn)
		return
	}
	switch s.DataOpener {
	case OpenerPORT:
		if cc.dialing {
			return
		}
		cc.dialing = true
		endpoint := s.DataEndpoint
		timeout := cc.state.Config.Timeout
		DialActive(endpoint, timeout, func(conn net.Conn) {
			cc.dataAccept <- conn
		}, func(err error) {
			cc.dataErr <- err
		})
	case OpenerPASV:
		// waiting on DataConnector's accept, delivered via cc.dataAccept
	default:
		cc.failTransfer("Can't open data connection.")
	}
}

func (cc *ControlConnection) beginPump(conn net.Conn) {
	s := cc.session
	dc := NewDataConnection(conn, s, s.TransferMode, s.DataReader, s.DataWriter)
	s.DataConn = dc
	ready := make(chan struct{})
	go dc.Run(ready, cc.dataReport)

	modeLabel := "BINARY"
	if s.DataType == 'A' {
		modeLabel = "ASCII"
	}
	cc.sendReply(NewReplyf(StatusFileStatusOK, "Opening %s mode data connection for %s.", modeLabel, s.DataFilename))
	close(ready)
	s.ClearDataOpener()
}

func (cc *ControlConnection) onDataOpenError(err error) {
	cc.logger.Debug("data connection open failed", "err", err, "session", cc.session.ID)
	cc.failTransfer("Can't open data connection.")
}

func (cc *ControlConnection) failTransfer(reason string) {
	s := cc.session
	if s.DataReader != nil {
		s.DataReader.Close()
	}
	if s.DataWriter != nil {
		s.DataWriter.Close()
	}
	s.ClearTransfer()
	s.ClearDataOpener()
	cc.sendReply(NewReply(StatusCantOpenDataConnection, reason))
}

func (cc *ControlConnection) onDataReport(r DataReport) {
	filename := cc.session.DataFilename
	cc.session.ClearTransfer()
	switch r.Outcome {
	case OutcomeSuccess:
		cc.writeReplyChain(NewReplyf(StatusClosingDataConnection, `Transfer completed for "%s".`, quoteDouble(filename)), true)
	case OutcomeAborted:
		cc.writeReplyChain(
			NewReply(StatusConnectionClosedTransferAborted, "Connection closed, transfer aborted.").
				WithNext(NewReply(StatusClosingDataConnection, "Abort command successful.")),
			true)
	case OutcomeFailed:
		cc.writeReplyChain(NewReplyf(StatusConnectionClosedTransferAborted, "Transfer failed: %v", r.Err), true)
	}
}

// abortNow is ABOR's Apply: it must decide based on session.DataConn,
// which is only safe to read/mutate from this goroutine.
func (cc *ControlConnection) abortNow() {
	cc.state.Pasv.Cancel(cc.session.ID)
	if dc := cc.session.DataConn; dc != nil {
		dc.Abort()
		return // the 426+226 sequence is produced by onDataReport
	}
	cc.sendReply(NewReply(StatusClosingDataConnection, "Abort command successful."))
}

// quitNow is QUIT's Apply.
func (cc *ControlConnection) quitNow() {
	cc.session.Poisoned = true
	cc.state.Pasv.Cancel(cc.session.ID)
	if cc.session.DataConn != nil {
		cc.sendReply(NewReply(StatusServiceClosingControlConnection, "Goodbye, closing as soon as the data transfer finishes."))
		return
	}
	cc.sendReply(NewReply(StatusServiceClosingControlConnection, "Goodbye."))
}

// resolvePathOrCwd is resolvePath, but an empty/flag-like/glob-like
// parameter (LIST/NLST/MLSD's listing target) falls back to cwd
// instead of resolving to "/" + the literal text.
func resolvePathOrCwd(cwd, param string) string {
	param = strings.TrimSpace(param)
	if param == "" || strings.HasPrefix(param, "-") || strings.Contains(param, "*") {
		return cwd
	}
	return resolvePath(cwd, param)
}
