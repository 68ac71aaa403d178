package ftp

import (
	"net"
	"strings"
)

func handlePORT(cc *ControlConnection, param string) HandlerResult {
	addr, err := ParsePortAddr(strings.TrimSpace(param))
	if err != nil {
		return simpleResult(NewReplyf(StatusSyntaxErrorInParameters, "%v", err))
	}
	return HandlerResult{
		Reply: NewReply(StatusCommandOK, "PORT command successful."),
		Apply: func(cc *ControlConnection) {
			s := cc.session
			s.DataOpener = OpenerPORT
			s.DataEndpoint = addr
		},
	}
}

func handleEPRT(cc *ControlConnection, param string) HandlerResult {
	addr, err := ParseEprtAddr(strings.TrimSpace(param))
	if err != nil {
		return simpleResult(NewReplyf(StatusSyntaxErrorInParameters, "%v", err))
	}
	return HandlerResult{
		Reply: NewReply(StatusCommandOK, "EPRT command successful."),
		Apply: func(cc *ControlConnection) {
			s := cc.session
			s.DataOpener = OpenerPORT
			s.DataEndpoint = addr
		},
	}
}

func handlePASV(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	ip, port, err := cc.state.Pasv.Reserve(s.ID,
		func(conn net.Conn) { cc.dataAccept <- conn },
		func(err error) { cc.dataErr <- err },
	)
	if err != nil {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	reply := NewReplyf(StatusEnteringPassiveMode, "Entering Passive Mode (%s).", FormatPasvAddr(ip, port))
	return HandlerResult{
		Reply: reply,
		Apply: func(cc *ControlConnection) {
			cc.session.DataOpener = OpenerPASV
			cc.session.DataEndpoint = nil
		},
	}
}

func handleEPSV(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	_, port, err := cc.state.Pasv.Reserve(s.ID,
		func(conn net.Conn) { cc.dataAccept <- conn },
		func(err error) { cc.dataErr <- err },
	)
	if err != nil {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	reply := NewReplyf(StatusEnteringExtendedPassiveMode, "Entering Extended Passive Mode (|||%d|).", port)
	return HandlerResult{
		Reply: reply,
		Apply: func(cc *ControlConnection) {
			cc.session.DataOpener = OpenerPASV
			cc.session.DataEndpoint = nil
		},
	}
}
