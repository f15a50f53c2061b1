package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/inconshreveable/log15"
	"github.com/kormat/fmt15"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/goftpd/ftpd/ftpd/internal/config"
	"github.com/goftpd/ftpd/ftpd/internal/core"
	"github.com/goftpd/ftpd/ftpd/internal/logger"
)

var (
	serverFile  = kingpin.Flag("server", "Server configuration file").Default("server.json").String()
	usersFile   = kingpin.Flag("users", "Users configuration file").Default("users.json").String()
	singleUser  = kingpin.Flag("user", "Username for login (bypasses the users file)").Default("").String()
	singlePass  = kingpin.Flag("pass", "Password for --user").Default("").String()
	metricsAddr = kingpin.Flag("metrics", "Address to expose Prometheus metrics on (disabled when empty)").Default("").String()
	verbose     = kingpin.Flag("verbose", "Log commands and replies").Short('v').Bool()
)

func main() {
	kingpin.Parse()

	lvl := log.LvlInfo
	if *verbose {
		lvl = log.LvlDebug
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl,
		log.StreamHandler(os.Stderr, fmt15.Fmt15Format(fmt15.ColorMap))))

	cfg, err := config.LoadServer(*serverFile)
	if err != nil {
		log.Error("loading server configuration", "file", *serverFile, "err", err)
		os.Exit(1)
	}
	var auth core.Auth
	if *singleUser != "" {
		log.Info("single-user mode", "user", *singleUser)
		auth = &core.SimpleAuth{Name: *singleUser, Password: *singlePass}
	} else {
		users, err := config.LoadUsers(*usersFile)
		if err != nil {
			log.Error("loading users configuration", "file", *usersFile, "err", err)
			os.Exit(1)
		}
		auth = core.NewUserDirectory(users)
	}

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		log.Error("creating server root", "root", cfg.Root, "err", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error("metrics endpoint", "err", err)
			}
		}()
	}

	srv := core.NewServer(&core.Opts{
		Config: cfg,
		Auth:   auth,
		Logger: logger.NewLog15(),
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("interrupt received, draining sessions")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != core.ErrServerClosed {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
