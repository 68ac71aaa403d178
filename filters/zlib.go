package filters

import (
	"compress/zlib"
	"io"
)

// CompressAttr is the session attribute key a client opts compression
// in with (there is no standard FTP verb for this; an administrative
// SITE-style extension would set it). No third-party compression
// library appears anywhere in the retrieved example pack, so this
// filter is built on the standard library's compress/zlib.
const CompressAttr = "filter.compress"

// Zlib compresses outgoing bytes and decompresses incoming bytes. Like
// ASCII, it changes the byte count on the wire, so it vetoes
// REST/APPE/SIZE while active.
type Zlib struct{}

func (Zlib) Name() string         { return "zlib" }
func (Zlib) ModifiesLength() bool { return true }

func (Zlib) Active(ctx Context) bool {
	enabled, _ := ctx.Attrs[CompressAttr].(bool)
	return enabled
}

func (Zlib) WrapReader(r io.Reader) io.Reader {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return errReader{err}
	}
	return zr
}

func (Zlib) WrapWriter(w io.WriteCloser) io.WriteCloser {
	return &zlibWriter{zw: zlib.NewWriter(w), dst: w}
}

type zlibWriter struct {
	zw  *zlib.Writer
	dst io.WriteCloser
}

func (z *zlibWriter) Write(p []byte) (int, error) { return z.zw.Write(p) }

func (z *zlibWriter) Close() error {
	if err := z.zw.Close(); err != nil {
		return err
	}
	return z.dst.Close()
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
