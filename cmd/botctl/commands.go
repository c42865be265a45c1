package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/loykin/botctl"
	"github.com/spf13/cobra"
)

type command struct {
	global *GlobalFlags
}

// load builds the supervisor from the config file (or defaults) and wires
// CLI output: colorized diagnostics on stderr, install progress on stdout.
func (c *command) load() (*botctl.Supervisor, *botctl.Config, io.Closer, error) {
	var cfg *botctl.Config
	if c.global.ConfigPath != "" {
		loaded, err := botctl.LoadConfig(c.global.ConfigPath)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = botctl.DefaultConfig()
	}
	log, closer := cfg.Log.Build(os.Stderr)
	sup := botctl.New(cfg, log)
	sup.SetInstallOutput(os.Stdout)
	return sup, cfg, closer, nil
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func (c *command) Start(cmd *cobra.Command) error {
	sup, _, closer, err := c.load()
	if err != nil {
		return err
	}
	defer closeQuiet(closer)
	return sup.Start(cmd.Context())
}

func (c *command) Stop(cmd *cobra.Command, f StopFlags) error {
	sup, cfg, closer, err := c.load()
	if err != nil {
		return err
	}
	defer closeQuiet(closer)
	if f.Grace > 0 {
		cfg.StopGrace = f.Grace
	}
	err = sup.Stop(cmd.Context())
	if errors.Is(err, botctl.ErrNotRunning) {
		cmd.Println("bot already stopped")
		return nil
	}
	return err
}

func (c *command) Restart(cmd *cobra.Command, f StopFlags) error {
	sup, cfg, closer, err := c.load()
	if err != nil {
		return err
	}
	defer closeQuiet(closer)
	if f.Grace > 0 {
		cfg.StopGrace = f.Grace
	}
	return sup.Restart(cmd.Context())
}

func (c *command) Status(cmd *cobra.Command) error {
	sup, _, closer, err := c.load()
	if err != nil {
		return err
	}
	defer closeQuiet(closer)
	st, err := sup.Status()
	if err != nil {
		return err
	}
	switch st.State {
	case botctl.Running:
		cmd.Printf("bot running (pid %d)\n", st.PID)
	case botctl.Stale:
		cmd.Printf("stale lock (pid %d): previous run died without clean shutdown; run 'stop' or 'start' to repair\n", st.PID)
	default:
		cmd.Println("bot stopped")
	}
	return nil
}

func (c *command) Update(cmd *cobra.Command) error {
	sup, _, closer, err := c.load()
	if err != nil {
		return err
	}
	defer closeQuiet(closer)
	return sup.Update(cmd.Context())
}

// buildRoot creates the root command. With no subcommand, start runs.
func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	stopFlags := &StopFlags{}
	c := &command{global: global}

	root := &cobra.Command{
		Use:           "botctl",
		Short:         "Single-instance supervisor for a long-running bot process",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Help()
				return fmt.Errorf("unknown command %q", args[0])
			}
			return c.Start(cmd)
		},
	}
	root.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "path to botctl TOML config")

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot (no-op error if already running)",
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Start(cmd) },
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the bot gracefully, escalating after the grace period",
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Stop(cmd, *stopFlags) },
	}
	stopCmd.Flags().DurationVar(&stopFlags.Grace, "grace", 0, "grace period before SIGKILL (default from config)")

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop then start the bot",
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Restart(cmd, *stopFlags) },
	}
	restartCmd.Flags().DurationVar(&stopFlags.Grace, "grace", 0, "grace period before SIGKILL (default from config)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the bot is running",
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Status(cmd) },
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Force a dependency reinstall (restart required to apply)",
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Update(cmd) },
	}

	root.AddCommand(startCmd, stopCmd, restartCmd, statusCmd, updateCmd)
	return root
}
