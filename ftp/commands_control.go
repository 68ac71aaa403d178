package ftp

// handleQUIT decides its reply text based on whether a transfer is
// still live, which is only safe to read on the control connection's
// own goroutine — so, like ABOR, the real work happens in Apply.
func handleQUIT(cc *ControlConnection, param string) HandlerResult {
	return HandlerResult{
		Reply: NoopReply(),
		Apply: func(cc *ControlConnection) { cc.quitNow() },
	}
}
