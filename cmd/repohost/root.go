package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/repohost"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
)

// app carries state shared by every subcommand.
type app struct {
	configPath  string
	metricsFile string
	registry    *prometheus.Registry
	engine      *repohost.Engine
	closeLog    func() error
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "repohost",
		Short: "Administer hosted git projects, repositories and tenants",
		Long: `repohost manages a tree of bare git repositories laid out as
<project_root>/<project>/<repository>.git and the OS accounts that own them.

Settings come from the selected preset, then the config file, then
REPOHOST_* environment variables, then flags.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/"+config.ConfigRelPath+")")
	pf.String("mode", "", "settings preset: development or production")
	pf.String("project-root", "", "directory holding one directory per project")
	pf.String("host", "", "host name reported in listings")
	pf.String("system-author", "", "name of the commit identity")
	pf.String("system-email", "", "email of the commit identity")
	pf.String("staging-dir", "", "directory for ephemeral clones")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	pf.String("log-file", "", "log file; empty logs to stderr")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write this run's metrics to a node_exporter textfile")

	root.AddCommand(
		newProjectCommand(a),
		newRepoCommand(a),
		newUserCommand(a),
		newLogCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, closeLog, err := config.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	// Each run gets its own registry; the process exits before any scrape.
	a.registry = prometheus.NewRegistry()
	a.engine, err = repohost.New(cfg,
		repohost.WithLogger(logger),
		repohost.WithMetrics(metrics.New(a.registry)),
	)
	return err
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.metricsFile != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}
