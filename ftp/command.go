package ftp

import "strings"

// HandlerResult is what a command handler hands back to the control
// connection. Apply, if set, runs on the control connection's own
// goroutine and is the only place a handler may mutate Session or
// ControlConnection fields — the handler body itself runs on an
// Executor worker and must treat them as read-only, preserving the
// single-writer invariant on Session.
type HandlerResult struct {
	Reply Reply
	Apply func(cc *ControlConnection)
}

// CommandHandler implements one FTP verb.
type CommandHandler func(cc *ControlConnection, param string) HandlerResult

// CommandSpec is one verb's dispatch metadata: the capability traits
// from spec §4.3, realized as flags instead of a class hierarchy.
type CommandSpec struct {
	Verb string

	// LoggedIn: the dispatcher rejects with 530 unless session.LoggedIn.
	LoggedIn bool
	// Interrupt: may be dispatched while InterruptState is on.
	Interrupt bool

	Handler CommandHandler
}

func simpleResult(r Reply) HandlerResult { return HandlerResult{Reply: r} }

// splitCommandLine splits a received control line into its verb and
// parameter, matching verbs case-insensitively.
func splitCommandLine(line string) (verb, param string) {
	line = strings.TrimRight(line, "\r\n")
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return strings.ToUpper(line), ""
	}
	return strings.ToUpper(line[:idx]), line[idx+1:]
}
