package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/sevlyar/go-daemon"
)

const daemonName = "sntpald"

var daemonCtx = &daemon.Context{
	PidFileName: fmt.Sprintf("/var/run/%s.pid", daemonName),
	PidFilePerm: 0644,
	LogFileName: fmt.Sprintf("/var/log/%s.log", daemonName),
	LogFilePerm: 0640,
	WorkDir:     "./",
	Umask:       027,
	Args:        append([]string{daemonName}, os.Args[1:]...),
}

func killDaemon(log zerolog.Logger) {
	process, err := daemonCtx.Search()
	if err != nil {
		log.Fatal().Err(err).Msg("daemon not found")
	}

	if err := syscall.Kill(process.Pid, syscall.SIGTERM); err != nil {
		log.Fatal().Err(err).Int("pid", process.Pid).Msg("couldn't stop sntpal daemon")
	}
}
