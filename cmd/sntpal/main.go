package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sevlyar/go-daemon"

	"github.com/sntpal/sntpal/internal/config"
	"github.com/sntpal/sntpal/internal/logging"
	"github.com/sntpal/sntpal/pkg/sntpal"
)

const defaultConfigPath = "/etc/sntpal.conf"

func main() {
	var configPath string
	var query string
	var compare bool
	var noDaemon bool
	flag.StringVar(&configPath, "config", defaultConfigPath, "Path to the sntpal config file.")
	flag.StringVar(&query, "query", "", "Server to query; the clock is not adjusted.")
	flag.StringVar(&query, "q", query, "Server to query; the clock is not adjusted.")
	flag.BoolVar(&compare, "compare", false, "Cross-check the query result against a second NTP client.")
	flag.BoolVar(&noDaemon, "no-daemon", false, "Don't run sntpal as a daemon.")
	flag.Parse()

	log := logging.New(os.Stderr)

	if query != "" {
		system := sntpal.NewSystem(&config.Config{}, log)
		handleQueryCommand(system, query, compare)
		return
	}

	cfg, err := config.Parse(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration not usable")
	}

	if !noDaemon {
		d, err := daemonCtx.Reborn()
		if err != nil {
			if errors.Is(err, daemon.ErrWouldBlock) {
				killDaemon(log)
				fmt.Println("Successfully stopped sntpal daemon.")
				return
			}
			log.Fatal().Err(err).Msg("unable to daemonize")
		}
		if d != nil {
			fmt.Printf("Daemon process (%s, %d) started successfully.\n", daemonName, d.Pid)
			return
		}
		defer daemonCtx.Release()

		log = logging.New(os.Stderr) // the reborn child logs to the daemon log file
		log.Info().Strs("args", os.Args).Msg("daemon started")
	}

	system := sntpal.NewSystem(cfg, log)
	if err := system.Start(); err != nil {
		log.Fatal().Err(err).Msg("sntpal stopped")
	}
}
