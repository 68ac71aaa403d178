package ftp

import (
	"bufio"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/telebroad/ftpd/filesystem"
	"github.com/telebroad/ftpd/users"
)

// testClient is a minimal synchronous FTP control-connection client for
// exercising a *Server the way a real client would: one line out, one
// reply in.
type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialTestClient(t *testing.T, addr net.Addr) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dialing test server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) readLine() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("reading reply: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

// readReply reads a single reply, following multi-line "code-text"
// continuations until the final "code text" line.
func (c *testClient) readReply() string {
	c.t.Helper()
	first := c.readLine()
	if len(first) >= 4 && first[3] == '-' {
		code := first[:3]
		for {
			line := c.readLine()
			if strings.HasPrefix(line, code+" ") {
				return first
			}
		}
	}
	return first
}

func (c *testClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("writing command %q: %v", line, err)
	}
}

func (c *testClient) cmd(line string) string {
	c.t.Helper()
	c.send(line)
	return c.readReply()
}

func newTestServer(t *testing.T, configure func(*Server)) (*Server, net.Addr) {
	t.Helper()
	root := t.TempDir()
	localFS := filesystem.NewLocalFS(root)
	us := users.NewLocalUsers()

	srv, err := NewServer("127.0.0.1:0", localFS, us)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if configure != nil {
		configure(srv)
	}
	if err := srv.TryListenAndServe(50 * time.Millisecond); err != nil {
		t.Fatalf("TryListenAndServe: %v", err)
	}
	t.Cleanup(func() { srv.Close(nil) })
	return srv, srv.Addr()
}

func expectCode(t *testing.T, reply, want string) {
	t.Helper()
	if !strings.HasPrefix(reply, want) {
		t.Errorf("reply = %q, want prefix %q", reply, want)
	}
}

// S1: guest login.
func TestScenarioGuestLogin(t *testing.T) {
	_, addr := newTestServer(t, func(s *Server) { s.SetGuest(true) })
	c := dialTestClient(t, addr)

	expectCode(t, c.readReply(), "220")
	expectCode(t, c.cmd("USER anonymous"), "331")
	expectCode(t, c.cmd("PASS me@example.com"), "230")
}

// S2: PWD quoting from home "/".
func TestScenarioPWDQuoting(t *testing.T) {
	_, addr := newTestServer(t, func(s *Server) { s.SetGuest(true) })
	c := dialTestClient(t, addr)
	c.readReply()
	c.cmd("USER anonymous")
	c.cmd("PASS me@example.com")

	got := c.cmd("PWD")
	want := `257 "/" is current directory.`
	if got != want {
		t.Errorf("PWD reply = %q, want %q", got, want)
	}
}

// S3: PASV + RETR streams exactly the file's bytes, then 226.
func TestScenarioPasvRetr(t *testing.T) {
	root := t.TempDir()
	const body = "hello, ftp\n"
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte(body), 0o644); err != nil {
		t.Fatalf("seeding fixture file: %v", err)
	}
	localFS := filesystem.NewLocalFS(root)
	us := users.NewLocalUsers()
	if _, err := us.Add("alice", "wonderland", 1, "/"); err != nil {
		t.Fatalf("adding user: %v", err)
	}
	srv, err := NewServer("127.0.0.1:0", localFS, us)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.PasvMinPort, srv.PasvMaxPort = 40000, 40100
	if err := srv.TryListenAndServe(50 * time.Millisecond); err != nil {
		t.Fatalf("TryListenAndServe: %v", err)
	}
	t.Cleanup(func() { srv.Close(nil) })

	c := dialTestClient(t, srv.Addr())
	c.readReply()
	expectCode(t, c.cmd("USER alice"), "331")
	expectCode(t, c.cmd("PASS wonderland"), "230")
	expectCode(t, c.cmd("TYPE I"), "200")

	pasvReply := c.cmd("PASV")
	expectCode(t, pasvReply, "227")
	dataAddr := parsePasvAddr(t, pasvReply)

	dataConn, err := net.DialTimeout("tcp", dataAddr, 2*time.Second)
	if err != nil {
		t.Fatalf("dialing passive data address: %v", err)
	}
	defer dataConn.Close()

	c.send("RETR hello.txt")
	expectCode(t, c.readReply(), "150")

	got, err := io.ReadAll(dataConn)
	if err != nil {
		t.Fatalf("reading data connection: %v", err)
	}
	if string(got) != body {
		t.Errorf("RETR payload = %q, want %q", got, body)
	}

	final := c.readReply()
	want := `226 Transfer completed for "hello.txt".`
	if final != want {
		t.Errorf("final reply = %q, want %q", final, want)
	}
}

// S4: PORT + STOR, active-mode transfer. The test acts as the data
// listener and the server dials out to it, mirroring DialActive's
// client-listens/server-dials contract.
func TestScenarioPortStor(t *testing.T) {
	root := t.TempDir()
	localFS := filesystem.NewLocalFS(root)
	us := users.NewLocalUsers()
	if _, err := us.Add("alice", "wonderland", 1, "/"); err != nil {
		t.Fatalf("adding user: %v", err)
	}
	srv, err := NewServer("127.0.0.1:0", localFS, us)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.TryListenAndServe(50 * time.Millisecond); err != nil {
		t.Fatalf("TryListenAndServe: %v", err)
	}
	t.Cleanup(func() { srv.Close(nil) })

	dataLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening for active data connection: %v", err)
	}
	defer dataLn.Close()

	c := dialTestClient(t, srv.Addr())
	c.readReply()
	expectCode(t, c.cmd("USER alice"), "331")
	expectCode(t, c.cmd("PASS wonderland"), "230")
	expectCode(t, c.cmd("TYPE I"), "200")

	dataPort := dataLn.Addr().(*net.TCPAddr).Port
	portArg := "127,0,0,1," + itoa(dataPort/256) + "," + itoa(dataPort%256)
	expectCode(t, c.cmd("PORT "+portArg), "200")

	const body = "uploaded over active mode\n"
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := dataLn.Accept()
		accepted <- acceptResult{conn, err}
	}()

	c.send("STOR uploaded.txt")
	expectCode(t, c.readReply(), "150")

	res := <-accepted
	if res.err != nil {
		t.Fatalf("accepting active data connection: %v", res.err)
	}
	defer res.conn.Close()

	if _, err := res.conn.Write([]byte(body)); err != nil {
		t.Fatalf("writing upload payload: %v", err)
	}
	res.conn.Close()

	final := c.readReply()
	want := `226 Transfer completed for "uploaded.txt".`
	if final != want {
		t.Errorf("final reply = %q, want %q", final, want)
	}

	got, err := os.ReadFile(filepath.Join(root, "uploaded.txt"))
	if err != nil {
		t.Fatalf("reading uploaded file: %v", err)
	}
	if string(got) != body {
		t.Errorf("uploaded file = %q, want %q", got, body)
	}
}

// parsePasvAddr extracts "host:port" from a 227 reply's
// "(h1,h2,h3,h4,p1,p2)" payload.
func parsePasvAddr(t *testing.T, reply string) string {
	t.Helper()
	open := strings.IndexByte(reply, '(')
	close := strings.IndexByte(reply, ')')
	if open < 0 || close < 0 {
		t.Fatalf("PASV reply %q missing address tuple", reply)
	}
	fields := strings.Split(reply[open+1:close], ",")
	if len(fields) != 6 {
		t.Fatalf("PASV reply %q: expected 6 fields, got %d", reply, len(fields))
	}
	host := strings.Join(fields[:4], ".")
	var p1, p2 int
	for _, f := range []struct {
		dst *int
		s   string
	}{{&p1, fields[4]}, {&p2, fields[5]}} {
		n := 0
		for _, r := range f.s {
			n = n*10 + int(r-'0')
		}
		*f.dst = n
	}
	port := p1*256 + p2
	return host + ":" + itoa(port)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// S5: ABOR mid-transfer sequences 150 -> 426 -> 226, and the data
// socket is closed.
func TestScenarioAborMidTransfer(t *testing.T) {
	root := t.TempDir()
	big := strings.Repeat("x", 8*1024*1024)
	if err := os.WriteFile(filepath.Join(root, "big.bin"), []byte(big), 0o644); err != nil {
		t.Fatalf("seeding fixture file: %v", err)
	}
	localFS := filesystem.NewLocalFS(root)
	us := users.NewLocalUsers()
	if _, err := us.Add("alice", "wonderland", 1, "/"); err != nil {
		t.Fatalf("adding user: %v", err)
	}
	srv, err := NewServer("127.0.0.1:0", localFS, us)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.PasvMinPort, srv.PasvMaxPort = 40200, 40300
	if err := srv.TryListenAndServe(50 * time.Millisecond); err != nil {
		t.Fatalf("TryListenAndServe: %v", err)
	}
	t.Cleanup(func() { srv.Close(nil) })

	c := dialTestClient(t, srv.Addr())
	c.readReply()
	c.cmd("USER alice")
	c.cmd("PASS wonderland")
	c.cmd("TYPE I")
	pasvReply := c.cmd("PASV")
	dataAddr := parsePasvAddr(t, pasvReply)

	dataConn, err := net.DialTimeout("tcp", dataAddr, 2*time.Second)
	if err != nil {
		t.Fatalf("dialing passive data address: %v", err)
	}
	defer dataConn.Close()

	c.send("RETR big.bin")
	expectCode(t, c.readReply(), "150")

	c.send("ABOR")

	reply := c.readReply()
	expectCode(t, reply, "426")
	final := c.readReply()
	expectCode(t, final, "226")
}

// S6: unknown verb gets 504.
func TestScenarioUnknownCommand(t *testing.T) {
	_, addr := newTestServer(t, nil)
	c := dialTestClient(t, addr)
	c.readReply()

	got := c.cmd("FOO bar")
	want := "504 FOO not implemented."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

// S7: REST while an ASCII-mode filter is active is vetoed with 550.
func TestScenarioRestVetoedUnderASCII(t *testing.T) {
	root := t.TempDir()
	localFS := filesystem.NewLocalFS(root)
	us := users.NewLocalUsers()
	if _, err := us.Add("alice", "wonderland", 1, "/"); err != nil {
		t.Fatalf("adding user: %v", err)
	}
	srv, err := NewServer("127.0.0.1:0", localFS, us)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.TryListenAndServe(50 * time.Millisecond); err != nil {
		t.Fatalf("TryListenAndServe: %v", err)
	}
	t.Cleanup(func() { srv.Close(nil) })

	c := dialTestClient(t, srv.Addr())
	c.readReply()
	c.cmd("USER alice")
	c.cmd("PASS wonderland")
	c.cmd("TYPE A")

	got := c.cmd("REST 100")
	want := "550 REST unavailable for TYPE A, MODE S, STRU F."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

// S8: a suspended server refuses with a single 421 and closes.
func TestScenarioSuspended(t *testing.T) {
	srv, addr := newTestServer(t, func(s *Server) { s.Suspend(true) })
	_ = srv
	c := dialTestClient(t, addr)

	got := c.readReply()
	want := "421 Service not available, closing control connection."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadByte(); err == nil {
		t.Error("expected connection to close after the suspended reply")
	}
}

// S9: an over-long control line gets 500 and the connection closes.
func TestScenarioLineTooLong(t *testing.T) {
	_, addr := newTestServer(t, nil)
	c := dialTestClient(t, addr)
	c.readReply()

	huge := make([]byte, 9000)
	for i := range huge {
		huge[i] = 'a'
	}
	c.conn.Write(huge)
	c.conn.Write([]byte("\r\n"))

	got := c.readReply()
	want := "500 Command line too long."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

// S10: an idle connection past the configured timeout gets 421.
func TestScenarioIdleTimeout(t *testing.T) {
	_, addr := newTestServer(t, func(s *Server) { s.SetTimeout(100 * time.Millisecond) })
	c := dialTestClient(t, addr)
	c.readReply()

	got := c.readReply()
	want := "421 Idle timeout, closing control connection."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}
