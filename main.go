package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/Ogstra/ogs-traffic/api"
	"github.com/Ogstra/ogs-traffic/console"
	"github.com/Ogstra/ogs-traffic/core"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config.json", "Path to config.json")
	dataPath := flag.String("data", "", "Traffic CSV to load at startup")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info, error or fatal")
	consoleMode := flag.Bool("console", false, "Run the interactive menu instead of the HTTP panel")
	initConfig := flag.Bool("init-config", false, "Write the effective config to -config and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ogs-traffic %s\n", version)
		return
	}

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if *initConfig {
		if err := cfg.SaveAppConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", cfg.ConfigPath)
		return
	}

	// The menu owns stdout, so console mode logs to stderr.
	logOut := os.Stdout
	if *consoleMode {
		logOut = os.Stderr
	}
	logger := core.NewLogger("ogs-traffic", cfg.LogLevel, logOut)
	logger.Info("starting", lager.Data{
		"data_path":   cfg.DataPath,
		"listen_addr": cfg.ListenAddr,
		"console":     *consoleMode,
	})

	ds, err := preload(cfg.DataPath, *dataPath != "")
	if err != nil {
		logger.Fatal("preload-failed", err, lager.Data{"path": cfg.DataPath})
	}

	if *consoleMode {
		c := console.New(os.Stdin, os.Stdout, cfg, logger)
		if ds != nil {
			c.SetDataset(ds)
		}
		if err := c.Run(); err != nil {
			logger.Fatal("console-failed", err)
		}
		return
	}

	var opts []api.ServerOption
	if ds != nil {
		opts = append(opts, api.WithDataset(ds))
	}
	server := api.NewServer(cfg, logger, opts...)
	if err := server.Start(); err != nil {
		logger.Fatal("listen-failed", err)
	}
	if cfg.WatchInterval > 0 && cfg.DataPath != "" {
		server.WatchFile(cfg.DataPath, time.Duration(cfg.WatchInterval)*time.Second)
	}
	go func() {
		if err := server.Serve(); err != nil {
			logger.Error("serve-failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting-down")
	if err := server.Stop(); err != nil {
		logger.Error("shutdown-failed", err)
	}
}

// preload loads the startup CSV. A missing default file is not an error; a
// file named explicitly on the command line must exist.
func preload(path string, explicit bool) (*core.Dataset, error) {
	if path == "" {
		return nil, nil
	}
	ds := core.NewDataset()
	err := ds.LoadFile(path)
	if err == nil {
		return ds, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return nil, err
}
