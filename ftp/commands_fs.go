package ftp

import (
	"path"
	"strings"
)

func handleCWD(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	target := resolvePath(s.CurrentDir, strings.TrimSpace(param))
	if err := cc.state.FS.CheckDir(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return HandlerResult{
		Reply: NewReply(StatusFileActionOK, "Directory successfully changed."),
		Apply: func(cc *ControlConnection) { cc.session.CurrentDir = target },
	}
}

func handleCDUP(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	target := path.Dir(s.CurrentDir)
	if err := cc.state.FS.CheckDir(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%v", err))
	}
	return HandlerResult{
		Reply: NewReply(StatusFileActionOK, "Directory successfully changed."),
		Apply: func(cc *ControlConnection) { cc.session.CurrentDir = target },
	}
}

func handleDELE(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	target := resolvePath(s.CurrentDir, param)
	if err := cc.state.FS.Remove(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return simpleResult(NewReplyf(StatusFileActionOK, "Deleted %s.", param))
}

func handleMKD(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	target := resolvePath(s.CurrentDir, param)
	if err := cc.state.FS.MakeDir(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return simpleResult(NewReplyf(StatusPathnameCreated, `"%s" directory created.`, quoteDouble(target)))
}

func handleRMD(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	target := resolvePath(s.CurrentDir, param)
	if err := cc.state.FS.Remove(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return simpleResult(NewReplyf(StatusFileActionOK, "Removed %s.", param))
}

// renameFromAttr keys the RNFR source path into Session.Attributes
// until a matching RNTO consumes it.
const renameFromAttr = "rename.from"

func handleRNFR(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	target := resolvePath(s.CurrentDir, param)
	if _, err := cc.state.FS.Stat(target); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return HandlerResult{
		Reply: NewReply(StatusFileActionPending, "Ready for RNTO."),
		Apply: func(cc *ControlConnection) { cc.session.Attributes[renameFromAttr] = target },
	}
}

func handleRNTO(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	from, ok := s.Attributes[renameFromAttr].(string)
	if !ok || from == "" {
		return simpleResult(NewReply(StatusBadSequenceOfCommands, "RNFR required first."))
	}
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	to := resolvePath(s.CurrentDir, param)
	if err := cc.state.FS.Rename(from, to); err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%v", err))
	}
	return HandlerResult{
		Reply: NewReply(StatusFileActionOK, "Rename successful."),
		Apply: func(cc *ControlConnection) { delete(cc.session.Attributes, renameFromAttr) },
	}
}
