package ftp

import (
	"runtime"
	"strings"
)

func handlePWD(cc *ControlConnection, param string) HandlerResult {
	cwd := cc.session.CurrentDir
	return simpleResult(NewReplyf(StatusPathnameCreated, `"%s" is current directory.`, quoteDouble(cwd)))
}

func handleSYST(cc *ControlConnection, param string) HandlerResult {
	if runtime.GOOS == "windows" {
		return simpleResult(NewReply(StatusNameSystemType, "Windows_NT"))
	}
	return simpleResult(NewReply(StatusNameSystemType, "UNIX Type: L8"))
}

func handleNOOP(cc *ControlConnection, param string) HandlerResult {
	return simpleResult(NewReply(StatusCommandOK, "Command okay."))
}

func handleALLO(cc *ControlConnection, param string) HandlerResult {
	return simpleResult(NewReply(StatusCommandNotImplemented, "Command okay, no storage allocation necessary."))
}

func handleTVFS(cc *ControlConnection, param string) HandlerResult {
	return simpleResult(NewReply(StatusCommandOK, "TVFS command okay."))
}

func handleFEAT(cc *ControlConnection, param string) HandlerResult {
	text := strings.Join([]string{
		"Features:",
		" EPRT",
		" EPSV",
		" MDTM",
		" REST STREAM",
		" SIZE",
		" MLST type*;size*;modify*;perm*;",
		" MLSD",
		" TVFS",
		"End",
	}, "\n")
	return simpleResult(NewReply(StatusSystemStatus, text))
}

func handleHELP(cc *ControlConnection, param string) HandlerResult {
	return simpleResult(NewReply(StatusHelpMessage, "Help not implemented for individual commands."))
}

func handleSTAT(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	if s.DataConn != nil {
		return simpleResult(NewReply(StatusServiceClosingControlConnection, "Waiting for data transfer to finish."))
	}
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReplyf(StatusSystemStatus,
			"Control connection OK, TYPE %c, MODE %c, STRU %c", s.DataType, s.DataMode, s.DataStruct))
	}
	target := resolvePath(s.CurrentDir, param)
	entries, err := cc.state.FS.Dir(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	body := BuildList(entries) + "end"
	return simpleResult(NewReply(StatusDirectoryStatus, body))
}

func handleMDTM(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	target := resolvePath(s.CurrentDir, param)
	entry, err := cc.state.FS.Stat(target)
	if err != nil || entry.IsDir {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: not found.", param))
	}
	return simpleResult(NewReplyf(StatusFileStatus, "%s", entry.ModTime.UTC().Format("20060102150405")))
}

func handleSIZE(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	if cc.state.Filters.ModifiesLength(cc.filterContext()) {
		return simpleResult(NewReply(StatusFileUnavailable, "SIZE not available with the active transfer filters."))
	}
	target := resolvePath(s.CurrentDir, param)
	entry, err := cc.state.FS.Stat(target)
	if err != nil || entry.IsDir {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: not found.", param))
	}
	return simpleResult(NewReplyf(StatusFileStatus, "%d", entry.Size))
}
