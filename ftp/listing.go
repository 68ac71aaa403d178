package ftp

import (
	"fmt"
	"strings"

	"github.com/telebroad/ftpd/filesystem"
)

// BuildList renders entries the way LIST does: one classic Unix
// `ls -l`-style line per entry.
func BuildList(entries []filesystem.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s 1 %s %s %8d %s %s\r\n",
			e.Perm, e.Owner, e.Group, e.Size, e.ModTime.Format("Jan 02 15:04"), e.Name)
	}
	return b.String()
}

// BuildNlst renders entries the way NLST does: one bare name per line,
// directories suffixed with the path separator.
func BuildNlst(entries []filesystem.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		b.WriteString(name)
		b.WriteString("\r\n")
	}
	return b.String()
}

// mlsxFacts renders the semicolon-separated RFC 3659 facts for one
// entry; typ overrides the computed type (used for the synthetic
// cdir/pdir lines).
func mlsxFacts(e filesystem.Entry, typ string) string {
	if typ == "" {
		typ = "file"
		if e.IsDir {
			typ = "dir"
		}
	}
	perm := "r"
	if e.IsDir {
		perm = "el"
	}
	modify := e.ModTime.UTC().Format("20060102150405")
	return fmt.Sprintf("type=%s;size=%d;modify=%s;perm=%s;", typ, e.Size, modify, perm)
}

// BuildMlsd renders a directory listing the way MLSD does: a cdir line
// for the directory itself, a pdir line for its parent, then one facts
// line per entry.
func BuildMlsd(entries []filesystem.Entry, cwd, parent filesystem.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\r\n", mlsxFacts(cwd, "cdir"), ".")
	fmt.Fprintf(&b, "%s %s\r\n", mlsxFacts(parent, "pdir"), "..")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s\r\n", mlsxFacts(e, ""), e.Name)
	}
	return b.String()
}

// BuildMlst renders the single-entry MLST facts line (without the
// trailing CRLF; the caller wraps it in a 250 multi-line reply).
func BuildMlst(e filesystem.Entry) string {
	return fmt.Sprintf("%s %s", mlsxFacts(e, ""), e.Name)
}
