package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndrewLester/loclntp/pkg/loclntp"
	"github.com/sevlyar/go-daemon"
)

const defaultConfigPath = "/etc/loclntp.conf"

func main() {
	var config string
	var query string
	var socket string
	var showUI bool
	var noDaemon bool
	flag.StringVar(&config, "config", defaultConfigPath, "Path to the config file.")
	flag.StringVar(&query, "query", "", "Address to query.")
	flag.StringVar(&query, "q", query, "Address to query.")
	flag.StringVar(&socket, "socket", "", "Control socket of a running server, for -ui.")
	flag.BoolVar(&showUI, "ui", false, "Show the status of a running server.")
	flag.BoolVar(&noDaemon, "no-daemon", false, "Don't run loclntp as a daemon.")
	flag.Parse()

	if query != "" {
		handleQueryCommand(query)
		return
	}

	cfg, err := loadConfig(config)
	if err != nil {
		log.Fatal(err)
	}

	if showUI {
		if socket == "" {
			socket = cfg.Socket
		}
		handleStatusUI(socket)
		return
	}

	if !noDaemon {
		d, err := daemonCtx.Reborn()
		if err != nil {
			if errors.Is(err, daemon.ErrWouldBlock) {
				if err := killDaemon(); err != nil {
					log.Fatal(err)
				}
				fmt.Println("Successfully stopped loclntp daemon.")
				return
			}
			log.Fatal("Unable to run: ", err)
		}
		if d != nil {
			fmt.Printf("Daemon process (%s, %d) started successfully.\n", daemonName, d.Pid)
			return
		}

		log.Print("- - - - - - - - - - - - - - -")
		log.Print("daemon started", os.Args)
	}

	err = run(cfg)
	if !noDaemon {
		daemonCtx.Release()
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Print("stopped")
}

func run(cfg loclntp.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return loclntp.Start(ctx, cfg)
}

// loadConfig reads the config file, falling back to the defaults when the
// default path does not exist. NTP_HOST and NTP_PORT override the listen
// address.
func loadConfig(path string) (loclntp.Config, error) {
	cfg, err := loclntp.ParseConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || path != defaultConfigPath {
			return cfg, err
		}
		cfg = loclntp.DefaultConfig()
	}

	if err := cfg.OverrideListen(os.Getenv("NTP_HOST"), os.Getenv("NTP_PORT")); err != nil {
		return cfg, err
	}
	return cfg, nil
}
