// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
)

// LogNotifier logs announcements instead of sending them.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ ports.Notifier = LogNotifier{}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) AnnounceOpen(_ context.Context, cycle models.Cycle, voters []models.Voter, deadline time.Time) error {
	options := make([]string, 0, len(cycle.Choices))
	for _, ch := range cycle.Choices {
		options = append(options, ch.CandidateName)
	}
	n.logger().Info("Vote open",
		"cycle_id", cycle.ID,
		"date", cycle.Date.Format(models.DateLayout),
		"options", options,
		"deadline", deadline.Format("15:04"),
		"recipients", len(voters),
	)
	return nil
}

func (n LogNotifier) AnnounceClose(_ context.Context, cycle models.Cycle, winner *models.Candidate, tieBreaker *models.Voter, attendees []models.Voter) error {
	attrs := []any{
		"cycle_id", cycle.ID,
		"date", cycle.Date.Format(models.DateLayout),
		"attendees", len(attendees),
	}
	if winner != nil {
		attrs = append(attrs, "winner", winner.Name)
	}
	if tieBreaker != nil {
		attrs = append(attrs, "tie_breaker", tieBreaker.Name)
	}
	n.logger().Info("Vote closed", attrs...)
	return nil
}
