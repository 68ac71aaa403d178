package ftp

import (
	"fmt"
	"strings"
)

// Reply is an immutable FTP reply: a three-digit status code plus text,
// serialized per RFC 959. Text containing "\n" becomes a multi-line
// reply. Next chains a following reply that belongs to the same
// exchange (used for ABOR's 426 followed by 226).
type Reply struct {
	Code StatusCode
	Text string
	Noop bool
	Next *Reply
}

// NewReply builds a reply that will be written to the control socket.
func NewReply(code StatusCode, text string) Reply {
	return Reply{Code: code, Text: text}
}

// NewReplyf is NewReply with fmt.Sprintf formatting.
func NewReplyf(code StatusCode, format string, args ...any) Reply {
	return NewReply(code, fmt.Sprintf(format, args...))
}

// NoopReply is consumed by the control connection's dispatch loop but
// never written to the socket — used when a data connection report will
// produce the user-visible reply instead (ABOR while a transfer is live).
func NoopReply() Reply {
	return Reply{Noop: true}
}

// WithNext attaches a chained reply, returning a new value.
func (r Reply) WithNext(next Reply) Reply {
	r.Next = &next
	return r
}

// IsPreliminary reports whether this is a 1xx reply.
func (r Reply) IsPreliminary() bool {
	return r.Code >= 100 && r.Code < 200
}

// Serialize renders the reply as the bytes to write to the control
// socket, per RFC 959's single-line / multi-line format.
func (r Reply) Serialize() []byte {
	var b strings.Builder
	writeOne(&b, r.Code, r.Text)
	return []byte(b.String())
}

func writeOne(b *strings.Builder, code StatusCode, text string) {
	if text == "" {
		fmt.Fprintf(b, "%d\r\n", code)
		return
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) == 1 {
		fmt.Fprintf(b, "%d %s\r\n", code, lines[0])
		return
	}
	fmt.Fprintf(b, "%d-%s\r\n", code, lines[0])
	for _, line := range lines[1 : len(lines)-1] {
		fmt.Fprintf(b, " %s\r\n", line)
	}
	fmt.Fprintf(b, "%d %s\r\n", code, lines[len(lines)-1])
}

func quoteDouble(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
