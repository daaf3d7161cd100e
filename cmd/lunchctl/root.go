// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"github.com/spf13/cobra"

	"github.com/danielhkuo/lunchvote/bootstrap"
	"github.com/danielhkuo/lunchvote/cliparse"
)

// cli carries the wired app from the root's pre-run into subcommands.
type cli struct {
	configFile string
	app        *bootstrap.App
	cfg        cliparse.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "lunchctl",
		Short:         "Manage lunch vote candidates, voters and cycles",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliparse.Load(c.configFile)
			if err != nil {
				return err
			}
			logger := bootstrap.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			app, err := bootstrap.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			c.cfg, c.app = cfg, app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Close()
		},
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Config file (json, yaml or toml)")

	root.AddCommand(
		newSeedCmd(c),
		newCandidateCmd(c),
		newVoterCmd(c),
		newTickCmd(c),
		newLeaderboardCmd(c),
	)
	return root
}
