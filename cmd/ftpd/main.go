// Description: entry point for the standalone FTP server binary.
// Reads its configuration from the environment and starts one
// ftp.Server, matching the env-var conventions of the project's other
// deployments.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/telebroad/ftpd/filesystem"
	"github.com/telebroad/ftpd/ftp"
	"github.com/telebroad/ftpd/users"
)

func main() {
	logger := setupLogger()
	slog.SetDefault(logger)

	logger.Debug("starting ftp server")
	env, err := GetEnv(logger)
	if err != nil {
		logger.Error("error getting environment", "error", err)
		os.Exit(1)
	}

	u := GetUsers(logger, env)

	localFS := filesystem.NewLocalFS(env.FtpServerRoot)

	ftpServer, err := ftp.NewServer(env.FtpAddr, localFS, u)
	if err != nil {
		logger.Error("error building ftp server", "error", err)
		os.Exit(1)
	}
	ftpServer.SetLogger(logger.With("module", "ftp-server"))
	ftpServer.SetGuest(env.Guest)

	if env.FtpServerIPv4 != "" {
		if err := ftpServer.SetPublicServerIPv4(env.FtpServerIPv4); err != nil {
			logger.Error("error setting public server ip", "error", err)
			os.Exit(1)
		}
	}
	ftpServer.PasvMinPort = env.PasvMinPort
	ftpServer.PasvMaxPort = env.PasvMaxPort
	ftpServer.SetTimeout(env.IdleTimeout)

	if err := ftpServer.TryListenAndServe(time.Second); err != nil {
		logger.Error("error starting ftp server", "error", err)
		os.Exit(1)
	}
	logger.Info("ftp server started", "addr", env.FtpAddr)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	<-stopChan

	ftpServer.Close(fmt.Errorf("ftp server closed by signal"))
}

func setupLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		logLevel = slog.LevelDebug
		addSource = true
	case "INFO":
		logLevel = slog.LevelInfo
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	}

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		AddSource: addSource,
		Level:     logLevel,
	})

	logger := slog.New(handler).With("app", "ftpd")
	logger.Info("logger initialized", "level", logLevel)
	return logger
}

// GetUsers builds the in-memory account store from DEFAULT_USER,
// DEFAULT_PASS, and a comma-separated DEFAULT_IP allow-list.
func GetUsers(logger *slog.Logger, env *Environment) *users.LocalUsers {
	store := users.NewLocalUsers()

	defaultUser := os.Getenv("DEFAULT_USER")
	defaultPass := os.Getenv("DEFAULT_PASS")
	defaultIPs := os.Getenv("DEFAULT_IP")
	logger.Debug("DEFAULT_USER is", "username", defaultUser)

	if defaultUser == "" || defaultPass == "" {
		logger.Info("DEFAULT_USER or DEFAULT_PASS is empty, not creating default user")
		return store
	}

	user, err := store.Add(defaultUser, defaultPass, 1, "/")
	if err != nil {
		logger.Error("error creating default user", "error", err)
		return store
	}

	for _, ip := range strings.Split(defaultIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if err := user.AddIP(ip); err != nil {
			logger.Warn("skipping invalid DEFAULT_IP entry", "ip", ip, "error", err)
		}
	}

	return store
}

// Environment is the process's environment-derived configuration.
type Environment struct {
	FtpAddr       string
	FtpServerIPv4 string
	FtpServerRoot string
	PasvMinPort   int
	PasvMaxPort   int
	IdleTimeout   time.Duration
	Guest         bool
}

// GetEnv reads the environment variables this binary is configured
// from. FTP_SERVER_IPV4 falls back to an external IP lookup when unset
// so PASV/EPSV replies still carry a reachable address.
func GetEnv(logger *slog.Logger) (env *Environment, err error) {
	env = &Environment{}

	env.FtpServerIPv4 = os.Getenv("FTP_SERVER_IPV4")
	if env.FtpServerIPv4 == "" {
		logger.Debug("FTP_SERVER_IPV4 was empty, resolving public ip")
		ip, ipErr := ftp.GetServerPublicIP()
		if ipErr != nil {
			logger.Warn("could not resolve public ip, PASV replies may be unreachable", "error", ipErr)
		} else {
			env.FtpServerIPv4 = ip.String()
		}
	}

	env.FtpAddr = os.Getenv("FTP_SERVER_ADDR")
	if env.FtpAddr == "" {
		env.FtpAddr = ":21"
	}
	env.FtpServerRoot = os.Getenv("FTP_SERVER_ROOT")
	if env.FtpServerRoot == "" {
		env.FtpServerRoot = "."
	}

	env.PasvMinPort, _ = strconv.Atoi(os.Getenv("PASV_MIN_PORT"))
	env.PasvMaxPort, _ = strconv.Atoi(os.Getenv("PASV_MAX_PORT"))
	env.Guest = os.Getenv("FTP_ALLOW_GUEST") == "1"

	env.IdleTimeout = 15 * time.Second
	if raw := os.Getenv("FTP_IDLE_TIMEOUT"); raw != "" {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			logger.Warn("invalid FTP_IDLE_TIMEOUT, using default", "value", raw, "error", convErr)
		} else {
			env.IdleTimeout = time.Duration(secs) * time.Second
		}
	}

	logger.Debug("FTP_SERVER_ADDR is", "addr", env.FtpAddr)
	logger.Debug("FTP_SERVER_ROOT is", "root", env.FtpServerRoot)
	logger.Debug("PASV_MIN_PORT/PASV_MAX_PORT are", "min", env.PasvMinPort, "max", env.PasvMaxPort)
	logger.Debug("FTP_IDLE_TIMEOUT is", "timeout", env.IdleTimeout)

	return env, nil
}
