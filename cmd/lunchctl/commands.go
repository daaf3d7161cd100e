// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/notify"
)

var demoCandidates = []string{"Pizza", "Sandwiches", "Chinese", "Mexican", "Chicken", "Italian", "Vietnamese", "Japanese"}

var demoVoters = []struct{ name, email string }{
	{"Joe Test", "jtest@test.com"},
	{"Bob Test", "atest@test.com"},
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add demo candidates and voters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			added := 0
			for _, name := range demoCandidates {
				_, err := c.app.Store.CreateCandidate(ctx, models.Candidate{Name: name})
				if errors.Is(err, models.ErrConflict) {
					continue
				}
				if err != nil {
					return err
				}
				added++
			}
			fmt.Fprintf(out, "%d candidates added\n", added)

			for _, dv := range demoVoters {
				v, err := addVoter(c, cmd, dv.name, dv.email)
				if errors.Is(err, models.ErrConflict) {
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "voter %s: %s\n", v.Name, voteLink(c, v.Token))
			}
			return nil
		},
	}
}

func newCandidateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "candidate",
		Aliases: []string{"candidates"},
		Short:   "Manage lunch spots",
	}

	var website, lastWin string
	var wins int
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cand := models.Candidate{Name: args[0], Website: website, WinCount: wins}
			if lastWin != "" {
				d, err := time.Parse(models.DateLayout, lastWin)
				if err != nil {
					return fmt.Errorf("--last-win must be YYYY-MM-DD: %w", err)
				}
				cand.LastWinDate = d
			}
			created, err := c.app.Store.CreateCandidate(cmd.Context(), cand)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&website, "website", "", "Menu or website URL")
	add.Flags().IntVar(&wins, "wins", 0, "Visits before this database existed")
	add.Flags().StringVar(&lastWin, "last-win", "", "Date of the last visit (YYYY-MM-DD)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := c.app.Store.ListCandidates(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tENABLED\tWINS\tLAST WIN\tID")
			for _, cand := range candidates {
				fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%s\n", cand.Name, cand.Enabled, cand.WinCount, lastWinText(cand.LastWinDate), cand.ID)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list, newEnableCmd(c, "enable", true), newEnableCmd(c, "disable", false))
	return cmd
}

func newEnableCmd(c *cli, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME|ID",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cand, err := findCandidate(c, cmd, args[0])
			if err != nil {
				return err
			}
			if err := c.app.Store.SetCandidateEnabled(cmd.Context(), cand.ID, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", use, cand.Name)
			return nil
		},
	}
}

func findCandidate(c *cli, cmd *cobra.Command, ref string) (models.Candidate, error) {
	candidates, err := c.app.Store.ListCandidates(cmd.Context())
	if err != nil {
		return models.Candidate{}, err
	}
	for _, cand := range candidates {
		if cand.ID == ref || strings.EqualFold(cand.Name, ref) {
			return cand, nil
		}
	}
	return models.Candidate{}, fmt.Errorf("candidate %q: %w", ref, models.ErrNotFound)
}

func newVoterCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "voter",
		Aliases: []string{"voters"},
		Short:   "Manage voters",
	}

	add := &cobra.Command{
		Use:   "add NAME EMAIL",
		Short: "Add a voter and print their vote link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := addVoter(c, cmd, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s\n", v.Name, voteLink(c, v.Token))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List voters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voters, err := c.app.Store.ListVoters(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tEMAIL\tTIE-BREAKS\tID")
			for _, v := range voters {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", v.Name, v.Email, v.TieBreakCount, v.ID)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func addVoter(c *cli, cmd *cobra.Command, name, email string) (models.Voter, error) {
	token, err := auth.GenerateVoterToken()
	if err != nil {
		return models.Voter{}, err
	}
	return c.app.Store.CreateVoter(cmd.Context(), models.Voter{Name: name, Email: email, Token: token})
}

func voteLink(c *cli, token string) string {
	return notify.VoteLink(c.cfg.Hostname, token)
}

func newTickCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduler tick now",
		Long:  "Opens a cycle when inside the voting window, closes one past its closing time, and otherwise does nothing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := c.app.Scheduler.Tick(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tr)
			return nil
		},
	}
}

func newLeaderboardCmd(c *cli) *cobra.Command {
	var voterToken string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print candidates by score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var voterID string
			if voterToken != "" {
				v, err := c.app.Store.GetVoterByToken(ctx, voterToken)
				if err != nil {
					return err
				}
				voterID = v.ID
			}

			entries, err := c.app.Scheduler.Leaderboard(ctx, voterID)
			if err != nil {
				return err
			}
			stats, err := c.app.Store.Stats(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tSCORE\tWINS\tLAST WIN")
			for i, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i+1, e.Name, humanize.FtoaWithDigits(e.Score, 2), e.WinCount, e.LastWinAgo)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s cycles, %s ballots\n", humanize.Comma(int64(stats.CycleCount)), humanize.Comma(int64(stats.BallotCount)))
			return nil
		},
	}
	cmd.Flags().StringVar(&voterToken, "voter", "", "Score with one voter's ratings only (voter token)")
	return cmd
}

func lastWinText(d time.Time) string {
	if !d.After(models.FarPast) {
		return "never"
	}
	return d.Format(models.DateLayout)
}
