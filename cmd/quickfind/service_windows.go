//go:build windows

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/quickfind/quickfind/internal/logging"
	"github.com/quickfind/quickfind/internal/service"
)

const serviceName = "quickfind"

func installCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "register quickfind as a Windows service",
		Action: func(c *cli.Context) error {
			exe, err := os.Executable()
			if err != nil {
				return errors.Wrap(err, "resolve executable path")
			}
			m, err := mgr.Connect()
			if err != nil {
				return errors.Wrap(err, "connect to service manager")
			}
			defer m.Disconnect()

			s, err := m.CreateService(serviceName, exe, mgr.Config{
				StartType:   mgr.StartAutomatic,
				DisplayName: "quickfind file search index",
			})
			if err != nil {
				return errors.Wrap(err, "create service")
			}
			defer s.Close()
			fmt.Println("installed service", serviceName)
			return nil
		},
	}
}

func uninstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "uninstall",
		Usage: "remove the quickfind Windows service",
		Action: func(c *cli.Context) error {
			m, err := mgr.Connect()
			if err != nil {
				return errors.Wrap(err, "connect to service manager")
			}
			defer m.Disconnect()

			s, err := m.OpenService(serviceName)
			if err != nil {
				return errors.Wrap(err, "open service")
			}
			defer s.Close()

			if err := s.Delete(); err != nil {
				return errors.Wrap(err, "delete service")
			}
			fmt.Println("uninstalled service", serviceName)
			return nil
		},
	}
}

// windowsService adapts Worker's lifecycle to svc.Handler, used only
// when quickfind is launched by the Service Control Manager rather
// than interactively.
type windowsService struct {
	args *Args
}

func (h *windowsService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (svcSpecificEC bool, exitCode uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(logging.WithContext("scm"))
	done := make(chan error, 1)
	go func() {
		cfg, err := loadConfig(h.args)
		if err != nil {
			done <- err
			return
		}
		done <- service.Start(ctx, cfg)
	}()

	changes <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for {
		select {
		case err := <-done:
			cancel()
			if err != nil {
				return false, 1
			}
			return false, 0
		case req := <-r:
			switch req.Cmd {
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				cancel()
			case svc.Interrogate:
				changes <- req.CurrentStatus
			}
		}
	}
}

// maybeRunAsService runs quickfind under the Service Control Manager
// when the process was launched that way, so the same binary works
// both interactively and as an installed service.
func maybeRunAsService(args *Args) (handled bool, err error) {
	isService, err := svc.IsWindowsService()
	if err != nil || !isService {
		return false, err
	}
	return true, svc.Run(serviceName, &windowsService{args: args})
}
