package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/containerd/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/quickfind/quickfind/internal/config"
	"github.com/quickfind/quickfind/internal/logging"
	"github.com/quickfind/quickfind/internal/metrics"
	"github.com/quickfind/quickfind/internal/service"
)

var (
	Version   = "0.0.0-dev"
	Reversion = "unknown"
	GoVersion = "unknown"
)

func main() {
	args := &Args{}
	app := &cli.App{
		Name:  "quickfind",
		Usage: "always-on NTFS file name search index",
		Flags: buildFlags(args),
		Commands: []*cli.Command{
			benchCommand(),
			installCommand(),
			uninstallCommand(),
			{
				Name:  "server",
				Usage: "run quickfind interactively, outside the Service Control Manager",
				Action: func(c *cli.Context) error {
					return runServer(c.Context, args)
				},
			},
		},
		Action: func(c *cli.Context) error {
			if args.PrintVersion {
				fmt.Println("Version:   ", Version)
				fmt.Println("Reversion: ", Reversion)
				fmt.Println("Go version:", GoVersion)
				return nil
			}
			if handled, err := maybeRunAsService(args); handled {
				return err
			}
			return runServer(c.Context, args)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.L.WithError(err).Fatal("quickfind exited with error")
	}
}

func loadConfig(args *Args) (config.Config, error) {
	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return cfg, err
	}
	args.applyTo(&cfg)
	return cfg, nil
}

func runServer(ctx context.Context, args *Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	logDir, err := cfg.LogDirPath()
	if err != nil {
		return errors.Wrap(err, "resolve log directory")
	}
	rotateArgs := &logging.RotateLogArgs{
		RotateLogMaxSize:    100,
		RotateLogMaxBackups: 5,
		RotateLogMaxAge:     28,
		RotateLogCompress:   true,
	}
	if err := logging.SetUp(cfg.LogLevel, cfg.LogToStdout, logDir, rotateArgs); err != nil {
		return errors.Wrap(err, "set up logging")
	}

	ctx, cancel := signal.NotifyContext(logging.WithContext("server"), os.Interrupt)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.G(ctx).WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	log.G(ctx).WithField("pid", os.Getpid()).WithField("version", Version).Info("starting quickfind")
	return service.Start(ctx, cfg)
}
