package ftp

import (
	"regexp"
	"strings"
)

// guestEmailRe is the loose RFC-5322-ish check spec.md's guest login
// uses in place of real mailbox verification.
var guestEmailRe = regexp.MustCompile(`^[A-Za-z0-9_\-.]+@[A-Za-z0-9_\-.]*$`)

func handleUSER(cc *ControlConnection, param string) HandlerResult {
	username := strings.TrimSpace(param)
	if username == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	var reply Reply
	switch {
	case strings.EqualFold(username, "anonymous") && cc.state.Config.Guest:
		reply = NewReply(StatusCommandNotImplementedSuperfluous, "Guest login ok, send your email address as password.")
	case strings.EqualFold(username, "anonymous"):
		reply = NewReply(StatusNeedAccountForLogin, "Need account for login.")
	default:
		reply = NewReplyf(StatusCommandNotImplementedSuperfluous, "User %s okay, need password.", username)
	}
	return HandlerResult{
		Reply: reply,
		Apply: func(cc *ControlConnection) { cc.session.Username = username },
	}
}

func handlePASS(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	if s.LoggedIn {
		return simpleResult(NewReply(StatusBadSequenceOfCommands, "You are already logged in."))
	}
	if s.Username == "" {
		return simpleResult(NewReply(StatusBadSequenceOfCommands, "Login with USER first."))
	}

	if strings.EqualFold(s.Username, "anonymous") && cc.state.Config.Guest {
		if !guestEmailRe.MatchString(param) {
			return simpleResult(NewReply(StatusNotLoggedIn, "Invalid email address."))
		}
		username := s.Username
		return HandlerResult{
			Reply: NewReply(StatusUserLoggedIn, "User logged in, proceed."),
			Apply: func(cc *ControlConnection) { cc.session.Login(username, true, "/") },
		}
	}

	user, err := cc.state.Users.Login(s.Username, param, s.RemoteNetipAddr())
	if err != nil {
		return simpleResult(NewReply(StatusNotLoggedIn, "Invalid username or password."))
	}
	username, home := user.Username, user.Home
	return HandlerResult{
		Reply: NewReply(StatusUserLoggedIn, "User logged in, proceed."),
		Apply: func(cc *ControlConnection) { cc.session.Login(username, false, home) },
	}
}
