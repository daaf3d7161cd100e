// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/danielhkuo/lunchvote/metrics"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
	"github.com/danielhkuo/lunchvote/scoring"
	"github.com/danielhkuo/lunchvote/selection"
	"github.com/danielhkuo/lunchvote/tally"
)

// Transition is what a tick did.
type Transition int

const (
	// TickNone means the tick changed nothing.
	TickNone Transition = iota
	// TickOpened means the tick opened a cycle.
	TickOpened
	// TickClosed means the tick closed the current cycle.
	TickClosed
	// TickSkipped means another tick was still running.
	TickSkipped
)

// String is the label used in logs and metrics.
func (t Transition) String() string {
	switch t {
	case TickOpened:
		return "opened"
	case TickClosed:
		return "closed"
	case TickSkipped:
		return "skipped"
	default:
		return "none"
	}
}

// Scheduler opens and closes vote cycles from the wall clock. Its state is
// the presence or absence of an open cycle in the store, so ticks are
// idempotent and a restart resumes where the last tick left off.
type Scheduler struct {
	cfg      Config
	store    ports.Store
	notifier ports.Notifier
	clock    ports.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	selector *selection.Selector

	// rng is only used under tickMu.
	rng    *rand.Rand
	tickMu sync.Mutex

	ballots keyedMutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(c ports.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithRand sets the source of candidate draws and tie-breaker picks.
func WithRand(r *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = r }
}

// WithLogger sets the logger. A nil logger keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records ticks and ballots in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New returns a Scheduler. cfg must be valid.
func New(cfg Config, store ports.Store, notifier ports.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		clock:    ports.SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.selector = selection.New(cfg.NoRepeatDays, s.rng)
	return s
}

// Run ticks immediately and then every Interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		// Tick logs and counts its own failures; the next tick retries.
		_, _ = s.Tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick evaluates the schedule once. A tick that starts while another is
// still running does nothing and reports TickSkipped.
func (s *Scheduler) Tick(ctx context.Context) (Transition, error) {
	if !s.tickMu.TryLock() {
		s.logger.Warn("Tick skipped, previous tick still running")
		s.metrics.Tick(TickSkipped.String())
		return TickSkipped, nil
	}
	defer s.tickMu.Unlock()

	tr, err := s.tick(ctx)
	s.metrics.Tick(tr.String())
	return tr, err
}

func (s *Scheduler) tick(ctx context.Context) (Transition, error) {
	now := s.clock.Now().In(s.cfg.location())
	today := models.DateOf(now)

	open, err := s.store.CurrentOpenCycle(ctx)
	if err != nil {
		s.fail("load", err)
		return TickNone, err
	}

	if open == nil {
		s.metrics.SetOpen(false)
		if !s.cfg.inWindow(now) {
			return TickNone, nil
		}
		return s.open(ctx, now, today)
	}

	s.metrics.SetOpen(true)
	// A cycle left open from an earlier day, or one whose close was
	// interrupted, closes whatever the time.
	if !open.Open() || open.Date.Before(today) || s.cfg.pastClose(now) {
		return s.close(ctx, *open)
	}
	return TickNone, nil
}

func (s *Scheduler) open(ctx context.Context, now, today time.Time) (Transition, error) {
	candidates, err := s.store.ListEnabledCandidates(ctx)
	if err != nil {
		s.fail("open", err)
		return TickNone, err
	}

	picked, err := s.selector.Select(candidates, today)
	if err != nil {
		s.fail("select", err)
		return TickNone, err
	}
	ids := make([]string, len(picked))
	for i, c := range picked {
		ids[i] = c.ID
	}

	var cycle models.Cycle
	err = s.store.InTx(ctx, func(tx ports.Store) error {
		var err error
		cycle, err = tx.CreateCycle(ctx, today, ids)
		return err
	})
	if errors.Is(err, models.ErrConflict) {
		s.logger.Info("Cycle already open, nothing to do")
		return TickNone, nil
	}
	if err != nil {
		s.fail("open", err)
		return TickNone, err
	}

	s.metrics.SetOpen(true)
	s.logger.Info("Voting is open", "cycle_id", cycle.ID, "date", cycle.Date.Format(models.DateLayout))

	voters, err := s.store.ListVoters(ctx)
	if err != nil {
		s.notifyFailed("open", err)
		return TickOpened, nil
	}
	if err := s.notifier.AnnounceOpen(ctx, cycle, voters, s.cfg.closeTime(now)); err != nil {
		s.notifyFailed("open", err)
	}
	return TickOpened, nil
}

func (s *Scheduler) close(ctx context.Context, cycle models.Cycle) (Transition, error) {
	// Ballot intake stops before the count, so every accepted ballot is counted.
	if err := s.store.SealCycle(ctx, cycle.ID); err != nil {
		s.fail("seal", err)
		return TickNone, err
	}

	ballots, err := s.store.BallotsFor(ctx, cycle.ID)
	if err != nil {
		s.fail("close", err)
		return TickNone, err
	}

	if len(ballots) == 0 {
		err := s.store.InTx(ctx, func(tx ports.Store) error {
			return tx.CloseCycle(ctx, cycle.ID, nil, nil)
		})
		if err != nil {
			s.fail("close", err)
			return TickNone, err
		}
		s.metrics.SetOpen(false)
		s.logger.Info("Voting closed without ballots", "cycle_id", cycle.ID)
		if err := s.notifier.AnnounceClose(ctx, cycle, nil, nil, nil); err != nil {
			s.notifyFailed("close", err)
		}
		return TickClosed, nil
	}

	counts, err := s.store.VoterTieBreakCounts(ctx)
	if err != nil {
		s.fail("close", err)
		return TickNone, err
	}
	out := tally.Resolve(ballots, counts, s.rng)

	// The tie-break count is committed on its own so a failed close does not
	// hand the same voter the duty again on retry.
	var tieBreakerID *string
	if out.TieBreakerVoterID != "" {
		id := out.TieBreakerVoterID
		tieBreakerID = &id
		if err := s.store.IncrementTieBreak(ctx, id); err != nil {
			s.fail("tie_break", err)
			return TickNone, err
		}
		s.metrics.TieBreak()
		s.logger.Info("Tie broken", "cycle_id", cycle.ID, "voter_id", id, "tied", len(out.TiedWinners))
	}

	var winner *models.Candidate
	if out.Winner != tally.NoWinner {
		ch := choiceAt(cycle, out.Winner)
		winner = &models.Candidate{ID: ch.CandidateID, Name: ch.CandidateName}
	}

	err = s.store.InTx(ctx, func(tx ports.Store) error {
		var winnerID *string
		if winner != nil {
			winnerID = &winner.ID
		}
		if err := tx.CloseCycle(ctx, cycle.ID, winnerID, tieBreakerID); err != nil {
			return err
		}
		if winner != nil {
			if err := tx.RecordWin(ctx, winner.ID, cycle.Date); err != nil {
				return err
			}
		}
		if err := refreshScores(ctx, tx); err != nil {
			return err
		}
		return tx.SaveResultSnapshot(ctx, snapshot(cycle, ballots, out, winnerID, tieBreakerID))
	})
	if err != nil {
		s.fail("close", err)
		return TickNone, err
	}

	s.metrics.SetOpen(false)
	attrs := []any{"cycle_id", cycle.ID, "ballots", len(ballots)}
	if winner != nil {
		attrs = append(attrs, "winner", winner.Name)
	}
	s.logger.Info("Voting has closed", attrs...)

	attendees, tieBreaker, err := s.attendees(ctx, ballots, out.TieBreakerVoterID)
	if err != nil {
		s.notifyFailed("close", err)
		return TickClosed, nil
	}
	if err := s.notifier.AnnounceClose(ctx, cycle, winner, tieBreaker, attendees); err != nil {
		s.notifyFailed("close", err)
	}
	return TickClosed, nil
}

// attendees resolves the voters behind ballots and the tie-breaker, if any.
func (s *Scheduler) attendees(ctx context.Context, ballots []models.Ballot, tieBreakerID string) ([]models.Voter, *models.Voter, error) {
	voters, err := s.store.ListVoters(ctx)
	if err != nil {
		return nil, nil, err
	}

	voted := make(map[string]bool, len(ballots))
	for _, b := range ballots {
		voted[b.VoterID] = true
	}

	var out []models.Voter
	var tb *models.Voter
	for _, v := range voters {
		if voted[v.ID] {
			out = append(out, v)
		}
		if v.ID == tieBreakerID {
			tb = &v
		}
	}
	return out, tb, nil
}

func snapshot(cycle models.Cycle, ballots []models.Ballot, out tally.Outcome, winnerID, tieBreakerID *string) models.ResultSnapshot {
	snap := models.ResultSnapshot{
		CycleID:           cycle.ID,
		BallotCount:       len(ballots),
		WinnerID:          winnerID,
		TieBreakerVoterID: tieBreakerID,
		Pairwise:          out.Result.Pairwise,
		Strongest:         out.Result.Strongest,
	}
	for _, ord := range out.TiedWinners {
		snap.TiedWinnerIDs = append(snap.TiedWinnerIDs, choiceAt(cycle, ord).CandidateID)
	}
	return snap
}

func choiceAt(cycle models.Cycle, ordinal int) models.Choice {
	for _, ch := range cycle.Choices {
		if ch.Ordinal == ordinal {
			return ch
		}
	}
	return models.Choice{Ordinal: ordinal}
}

// refreshScores recomputes and stores every candidate's score from its full rating history.
func refreshScores(ctx context.Context, st ports.Store) error {
	candidates, err := st.ListCandidates(ctx)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		ratings, err := st.RatingsFor(ctx, c.ID, "")
		if err != nil {
			return err
		}
		if err := st.UpdateCandidateScore(ctx, c.ID, scoring.Score(ratings)); err != nil {
			return fmt.Errorf("update score for %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Scheduler) fail(phase string, err error) {
	s.metrics.TickError(phase)
	if errors.Is(err, selection.ErrNotEnoughCandidates) {
		s.logger.Error("Cannot open cycle", "error", err)
		return
	}
	s.logger.Error("Tick failed", "phase", phase, "error", err)
}

func (s *Scheduler) notifyFailed(kind string, err error) {
	s.metrics.NotificationFailed(kind)
	s.logger.Warn("Notification failed", "kind", kind, "error", err)
}
