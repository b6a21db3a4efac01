package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quickfind/quickfind/internal/config"
)

// Args is a plain struct that cli.Flag Destination pointers write
// into directly, so Action never touches cli.Context again.
type Args struct {
	ConfigPath   string
	DriveLetter  string
	RootDir      string
	LogDir       string
	LogLevel     string
	LogToStdout  bool
	PipeName     string
	PollInterval time.Duration
	MetricsAddr  string
	PrintVersion bool
}

func buildFlags(args *Args) []cli.Flag {
	def := config.NewDefault()
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "version",
			Usage:       "print version and exit",
			Destination: &args.PrintVersion,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to the quickfind TOML configuration",
			Destination: &args.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "drive",
			DefaultText: def.DriveLetter,
			Usage:       "drive `LETTER` to index",
			Destination: &args.DriveLetter,
		},
		&cli.StringFlag{
			Name:        "root-dir",
			Usage:       "`DIRECTORY` for the snapshot and working state",
			Destination: &args.RootDir,
		},
		&cli.StringFlag{
			Name:        "log-dir",
			DefaultText: def.LogDir,
			Usage:       "`DIRECTORY` for rotated log files",
			Destination: &args.LogDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			DefaultText: def.LogLevel,
			Usage:       "log `LEVEL` (trace, debug, info, warn, error)",
			Destination: &args.LogLevel,
		},
		&cli.BoolFlag{
			Name:        "log-to-stdout",
			Usage:       "write logs to stdout instead of a rotated file",
			Destination: &args.LogToStdout,
		},
		&cli.StringFlag{
			Name:        "pipe-name",
			DefaultText: def.PipeName,
			Usage:       "named `PIPE` clients connect to",
			Destination: &args.PipeName,
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			DefaultText: def.PollInterval.String(),
			Usage:       "USN journal poll cadence",
			Destination: &args.PollInterval,
		},
		&cli.StringFlag{
			Name:        "metrics-address",
			Usage:       "optional `ADDR` to serve Prometheus /metrics on",
			Destination: &args.MetricsAddr,
		},
	}
}

// applyTo overlays non-zero Args fields onto a loaded Config: file
// defaults first, then explicit flags take precedence.
func (a *Args) applyTo(cfg *config.Config) {
	if a.DriveLetter != "" {
		cfg.DriveLetter = a.DriveLetter
	}
	if a.RootDir != "" {
		cfg.RootDir = a.RootDir
	}
	if a.LogDir != "" {
		cfg.LogDir = a.LogDir
	}
	if a.LogLevel != "" {
		cfg.LogLevel = a.LogLevel
	}
	if a.LogToStdout {
		cfg.LogToStdout = true
	}
	if a.PipeName != "" {
		cfg.PipeName = a.PipeName
	}
	if a.PollInterval > 0 {
		cfg.PollInterval = a.PollInterval
	}
	if a.MetricsAddr != "" {
		cfg.MetricsAddr = a.MetricsAddr
	}
}
