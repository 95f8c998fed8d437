package main

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/intentd/pkg/app"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service <install|uninstall|start|stop|restart|run>",
		Short: "Manage intentd as a system service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcArgs := []string{"service", "run"}
			if cfgPath != "" {
				svcArgs = append(svcArgs, "--config", cfgPath)
			}

			svc, err := service.New(&daemonProgram{configPath: cfgPath}, &service.Config{
				Name:        "intentd",
				DisplayName: "intentd",
				Description: "Intent resolution daemon mapping plain-text requests to shell commands",
				Arguments:   svcArgs,
			})
			if err != nil {
				return err
			}

			action := args[0]
			if action == "run" {
				return svc.Run()
			}

			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s failed: %w", action, err)
			}
			fmt.Printf("Service %s: done\n", action)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

// daemonProgram adapts app.Run to the service manager's lifecycle. Stop
// delivers SIGTERM to the process; app.Run's signal loop handles the
// graceful shutdown from there.
type daemonProgram struct {
	configPath string
}

func (p *daemonProgram) Start(service.Service) error {
	go func() {
		err := app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Transport:  app.TransportHTTP,
			Version:    version,
			Commit:     commit,
			Date:       date,
			LogLevel:   slog.LevelInfo,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}()
	return nil
}

func (p *daemonProgram) Stop(service.Service) error {
	return syscall.Kill(os.Getpid(), syscall.SIGTERM)
}
