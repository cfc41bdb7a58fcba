package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/logtrace"
	"github.com/unlingo/unlingo/internal/unlingosrv/config"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
	"github.com/unlingo/unlingo/internal/unlingosrv/server"
)

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	if *opt.configFile != "" {
		slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	}
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	if config.Config().ServerPort == "" {
		slog.Error().Msg("server port not defined")
		os.Exit(1)
	}

	backend := config.Config().DB.Backend
	if backend == "memory" {
		if err := db.Init(context.Background(), "memory"); err != nil {
			slog.Error().Err(err).Msg("unable to init memory store")
			os.Exit(1)
		}
	} else {
		if err := db.Init(context.Background(), config.Dsn()); err != nil {
			slog.Error().Err(err).Msg("unable to init db pool")
			os.Exit(1)
		}
	}
	objectstore.Init(backend)

	s, err := server.CreateNewServer()
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()
	slog.Info().Str("port", config.Config().ServerPort).Msg("starting server")
	if err := http.ListenAndServe(":"+config.Config().ServerPort, s.Router); err != nil {
		slog.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", "", "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
