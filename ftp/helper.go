package ftp

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"path"
	"strconv"
	"strings"
	"time"
)

// resolvePath joins an FTP command's path parameter against the
// session's current directory, the way CWD/LIST/RETR/... all do.
func resolvePath(cwd, param string) string {
	if param == "" {
		return cwd
	}
	if strings.HasPrefix(param, "/") {
		return path.Clean(param)
	}
	return path.Clean(path.Join(cwd, param))
}

// ParsePortAddr parses a PORT command parameter: "h1,h2,h3,h4,p1,p2".
func ParsePortAddr(param string) (*net.TCPAddr, error) {
	parts := strings.Split(param, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("PORT address %q: expected 6 comma-separated fields", param)
	}
	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("PORT address %q: invalid field %q", param, p)
		}
		nums[i] = n
	}
	ip := net.IPv4(byte(nums[0]), byte(nums[1]), byte(nums[2]), byte(nums[3]))
	port := nums[4]*256 + nums[5]
	return &net.TCPAddr{IP: ip, Port: port}, nil
}

// ParseEprtAddr parses an EPRT command parameter:
// "<d>proto<d>addr<d>port<d>" where proto is 1 (IPv4) or 2 (IPv6) and
// <d> is a delimiter character chosen by the client (conventionally
// "|"). The address family is validated against proto before dialing.
func ParseEprtAddr(param string) (*net.TCPAddr, error) {
	if len(param) < 2 {
		return nil, fmt.Errorf("EPRT address %q: too short", param)
	}
	delim := param[0:1]
	fields := strings.Split(param, delim)
	// fields[0] is empty (before the leading delimiter)
	if len(fields) != 5 {
		return nil, fmt.Errorf("EPRT address %q: expected 3 delimited fields", param)
	}
	proto, addrStr, portStr := fields[1], fields[2], fields[3]
	addr, err := netip.ParseAddr(addrStr)
	if err != nil {
		return nil, fmt.Errorf("EPRT address %q: invalid address %q: %w", param, addrStr, err)
	}
	switch proto {
	case "1":
		if !addr.Is4() {
			return nil, fmt.Errorf("EPRT address %q: proto 1 requires an IPv4 address", param)
		}
	case "2":
		if !addr.Is6() {
			return nil, fmt.Errorf("EPRT address %q: proto 2 requires an IPv6 address", param)
		}
	default:
		return nil, fmt.Errorf("EPRT address %q: unsupported network protocol %q", param, proto)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("EPRT address %q: invalid port %q", param, portStr)
	}
	return &net.TCPAddr{IP: net.IP(addr.AsSlice()), Port: port}, nil
}

// readCloser pairs a (possibly filter-wrapped) Reader with the
// underlying file's Closer, so RETR can hand DataConnection a single
// io.ReadCloser without the filters package needing to know about
// closing the file it never opened.
type readCloser struct {
	io.Reader
	closer io.Closer
}

func wrapReadCloser(r io.Reader, c io.Closer) io.ReadCloser {
	return readCloser{Reader: r, closer: c}
}

func (r readCloser) Close() error { return r.closer.Close() }

// FormatPasvAddr formats a server endpoint as PASV's
// "a,b,c,d,p1,p2" reply text.
func FormatPasvAddr(ip net.IP, port int) string {
	ip4 := ip.To4()
	if ip4 == nil {
		ip4 = net.IPv4(127, 0, 0, 1)
	}
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d", ip4[0], ip4[1], ip4[2], ip4[3], port/256, port%256)
}

// GetServerPublicIP resolves the address to advertise in PASV/EPSV
// replies: an external IP-lookup service first, falling back to the
// first non-loopback address on a local interface.
func GetServerPublicIP() (net.IP, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("https://api.ipify.org?format=text")
	if err == nil {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			if ip := net.ParseIP(strings.TrimSpace(string(body))); ip != nil {
				return ip, nil
			}
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("resolving local IP: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("no non-loopback network interface found")
}
