//go:build !windows

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/quickfind/quickfind/pkg/errdefs"
)

func installCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "register quickfind as a Windows service (unsupported on this platform)",
		Action: func(c *cli.Context) error {
			return errdefs.ErrUnsupportedPlatform
		},
	}
}

func uninstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "uninstall",
		Usage: "remove the quickfind Windows service (unsupported on this platform)",
		Action: func(c *cli.Context) error {
			return errdefs.ErrUnsupportedPlatform
		},
	}
}

// maybeRunAsService never applies outside Windows: there is no
// Service Control Manager to detect.
func maybeRunAsService(args *Args) (handled bool, err error) {
	return false, nil
}
