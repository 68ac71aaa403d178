package ftp

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/telebroad/ftpd/filesystem"
	"github.com/telebroad/ftpd/filters"
	"github.com/telebroad/ftpd/users"
)

// Config holds the process-wide settings a Server is constructed with.
type Config struct {
	Hostname    string
	Port        int
	ExternalIP  string        // advertised in PASV/EPSV replies
	Timeout     time.Duration // idle control-connection timeout; 0 disables
	Guest       bool
	GuestEmail  string // not read by any command; the anonymous USER reply text is fixed
	PasvPorts   []uint16
	MaxLine     int // control line cap in bytes; default 8192
	ExecWorkers int // executor worker pool size
}

// FtpState bundles the services every Session's commands are executed
// against: filesystem, user store, data filter chain, registry, and
// configuration. Constructed once at boot; immutable thereafter except
// for Suspended.
type FtpState struct {
	Config Config

	FS       filesystem.FS
	Users    users.Users
	Filters  filters.Applicator
	Registry *Registry
	Factory  *CommandFactory
	Pasv     *DataConnector
	Executor *Executor

	Logger *slog.Logger

	Suspended atomic.Bool
}

// NewFtpState wires the collaborators into a shared state bundle.
func NewFtpState(cfg Config, fs filesystem.FS, us users.Users, fl filters.Applicator, logger *slog.Logger) *FtpState {
	if cfg.MaxLine <= 0 {
		cfg.MaxLine = 8192
	}
	if cfg.ExecWorkers <= 0 {
		cfg.ExecWorkers = 8
	}
	st := &FtpState{
		Config:   cfg,
		FS:       fs,
		Users:    us,
		Filters:  fl,
		Registry: NewRegistry(),
		Logger:   logger,
	}
	st.Pasv = NewDataConnector(cfg.PasvPorts, cfg.ExternalIP, logger.With("module", "pasv"))
	st.Factory = NewCommandFactory()
	st.Executor = NewExecutor(cfg.ExecWorkers)
	return st
}
