package ftp

import (
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/sftp"
)

// minFreeBytes is the free-space floor STOR/APPE/STOU require before
// arming a write transfer (spec's StatFS admission check, §4 SPEC_FULL).
const minFreeBytes = 1 << 20 // 1 MiB

func insufficientStorage(vfs *sftp.StatVFS) bool {
	blockSize := vfs.Frsize
	if blockSize == 0 {
		blockSize = vfs.Bsize
	}
	if blockSize == 0 {
		return false
	}
	return vfs.Bavail*blockSize < minFreeBytes
}

func handleLIST(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	if s.DataOpener == OpenerNone {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	target := resolvePathOrCwd(s.CurrentDir, param)
	entries, err := cc.state.FS.Dir(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	body := BuildList(entries)
	return armReader(cc, TransferList, strings.NewReader(body), nopCloser{}, "file list")
}

func handleNLST(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	if s.DataOpener == OpenerNone {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	target := resolvePathOrCwd(s.CurrentDir, param)
	entries, err := cc.state.FS.Dir(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	body := BuildNlst(entries)
	return armReader(cc, TransferList, strings.NewReader(body), nopCloser{}, "file list")
}

func handleMLSD(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	if s.DataOpener == OpenerNone {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	target := resolvePathOrCwd(s.CurrentDir, param)
	entries, err := cc.state.FS.Dir(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	cwdEntry, err := cc.state.FS.Stat(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	parentEntry, err := cc.state.FS.Stat(path.Dir(target))
	if err != nil {
		parentEntry = cwdEntry
	}
	body := BuildMlsd(entries, cwdEntry, parentEntry)
	return armReader(cc, TransferList, strings.NewReader(body), nopCloser{}, "file list")
}

func handleMLST(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	target := resolvePathOrCwd(s.CurrentDir, param)
	entry, err := cc.state.FS.Stat(target)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return simpleResult(NewReply(StatusFileActionOK, "Listing:\n"+BuildMlst(entry)+"\nEnd"))
}

func handleRETR(cc *ControlConnection, param string) HandlerResult {
	s := cc.session
	param = strings.TrimSpace(param)
	if param == "" {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	if s.DataOpener == OpenerNone {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	target := resolvePath(s.CurrentDir, param)
	offset := s.DataMarker
	file, err := cc.state.FS.OpenRead(target, offset)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", param, err))
	}
	return armReader(cc, TransferRetr, cc.state.Filters.ApplyReader(file, cc.filterContext()), file, param)
}

// armReader is the common tail of LIST/NLST/MLSD/RETR: stash the
// already-opened source (filter-wrapped for RETR; listings are passed
// as is) on the session and try to start the pump.
func armReader(cc *ControlConnection, mode TransferMode, wrapped io.Reader, closer io.Closer, filename string) HandlerResult {
	return HandlerResult{
		Reply: NoopReply(),
		Apply: func(cc *ControlConnection) {
			s := cc.session
			s.TransferMode = mode
			s.DataReader = wrapReadCloser(wrapped, closer)
			s.DataFilename = filename
			s.DataMarker = 0
			cc.tryStartTransfer()
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func handleSTOR(cc *ControlConnection, param string) HandlerResult {
	return armUpload(cc, param, false, false)
}

func handleAPPE(cc *ControlConnection, param string) HandlerResult {
	return armUpload(cc, param, true, false)
}

func handleSTOU(cc *ControlConnection, param string) HandlerResult {
	return armUpload(cc, param, false, true)
}

func armUpload(cc *ControlConnection, param string, appendOnly, unique bool) HandlerResult {
	s := cc.session
	if s.DataOpener == OpenerNone {
		return simpleResult(NewReply(StatusCantOpenDataConnection, "Can't open data connection."))
	}
	if appendOnly && cc.state.Filters.ModifiesLength(cc.filterContext()) {
		return simpleResult(NewReply(StatusFileUnavailable, "APPE unavailable with the active transfer filters."))
	}

	var target, displayName string
	if unique {
		dir := s.CurrentDir
		if p := strings.TrimSpace(param); p != "" {
			dir = resolvePath(s.CurrentDir, p)
		}
		name, err := cc.state.FS.CreateUnique(dir)
		if err != nil {
			return simpleResult(NewReplyf(StatusFileUnavailable, "%v", err))
		}
		target = path.Join(dir, name)
		displayName = name
	} else {
		param = strings.TrimSpace(param)
		if param == "" {
			return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
		}
		target = resolvePath(s.CurrentDir, param)
		displayName = param
	}

	if vfs, err := cc.state.FS.StatFS(target); err == nil && insufficientStorage(vfs) {
		return simpleResult(NewReply(StatusInsufficientStorage, "Insufficient storage space."))
	}

	writer, err := cc.state.FS.OpenWrite(target, appendOnly)
	if err != nil {
		return simpleResult(NewReplyf(StatusFileUnavailable, "%s: %v", displayName, err))
	}
	wrapped := cc.state.Filters.ApplyWriter(writer, cc.filterContext())

	mode := TransferStor
	if unique {
		mode = TransferStou
	}
	return HandlerResult{
		Reply: NoopReply(),
		Apply: func(cc *ControlConnection) {
			s := cc.session
			s.TransferMode = mode
			s.DataWriter = wrapped
			s.DataFilename = displayName
			cc.tryStartTransfer()
		},
	}
}

func handleREST(cc *ControlConnection, param string) HandlerResult {
	if cc.state.Filters.ModifiesLength(cc.filterContext()) {
		s := cc.session
		return simpleResult(NewReplyf(StatusFileUnavailable,
			"REST unavailable for TYPE %c, MODE %c, STRU %c.", s.DataType, s.DataMode, s.DataStruct))
	}
	marker, err := strconv.ParseInt(strings.TrimSpace(param), 10, 64)
	if err != nil || marker < 0 {
		return simpleResult(NewReply(StatusSyntaxErrorInParameters, "Syntax error in parameters."))
	}
	return HandlerResult{
		Reply: NewReplyf(StatusFileActionPending, "Restarting at %d. Send STOR or RETR to initiate transfer.", marker),
		Apply: func(cc *ControlConnection) { cc.session.DataMarker = marker },
	}
}

func handleABOR(cc *ControlConnection, param string) HandlerResult {
	return HandlerResult{
		Reply: NoopReply(),
		Apply: func(cc *ControlConnection) { cc.abortNow() },
	}
}
