package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/delaneyj/trackstate/internal/config"
	"github.com/delaneyj/trackstate/internal/logging"
	"github.com/urfave/cli/v3"
)

const (
	configKey   = "config"
	logLevelKey = "log-level"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "trackstate",
		Usage: "Benchmark, demo and serve dependency-tracked state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "Path to a YAML config file",
				Value: "trackstate.yaml",
			},
			&cli.StringFlag{
				Name:  logLevelKey,
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
		},
		Commands: []*cli.Command{
			benchCommand(),
			demoCommand(),
			serveCommand(),
		},
	}
}

// setup loads the config file and builds the logger every subcommand uses.
func setup(cmd *cli.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String(configKey))
	if err != nil {
		return cfg, nil, err
	}
	if lvl := cmd.String(logLevelKey); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}
