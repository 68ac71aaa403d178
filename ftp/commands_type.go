package ftp

import "strings"

func handleTYPE(cc *ControlConnection, param string) HandlerResult {
	param = strings.ToUpper(strings.TrimSpace(param))
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	t := param[0]
	if t != 'A' && t != 'I' {
		return simpleResult(NewReplyf(StatusCommandNotImplementedForParam, "Type %s not supported.", param))
	}
	return HandlerResult{
		Reply: NewReplyf(StatusCommandOK, "Type set to %c.", t),
		Apply: func(cc *ControlConnection) { cc.session.DataType = t },
	}
}

func handleMODE(cc *ControlConnection, param string) HandlerResult {
	param = strings.ToUpper(strings.TrimSpace(param))
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	if param != "S" {
		return simpleResult(NewReplyf(StatusCommandNotImplementedForParam, "Mode %s not supported.", param))
	}
	return HandlerResult{
		Reply: NewReply(StatusCommandOK, "Mode set to S."),
		Apply: func(cc *ControlConnection) { cc.session.DataMode = 'S' },
	}
}

func handleSTRU(cc *ControlConnection, param string) HandlerResult {
	param = strings.ToUpper(strings.TrimSpace(param))
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	if param != "F" {
		return simpleResult(NewReplyf(StatusCommandNotImplementedForParam, "Structure %s not supported.", param))
	}
	return HandlerResult{
		Reply: NewReply(StatusCommandOK, "Structure set to F."),
		Apply: func(cc *ControlConnection) { cc.session.DataStruct = 'F' },
	}
}
