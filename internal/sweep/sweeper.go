package sweep

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/oauth"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

// ErrInvalidCron is returned when a cron expression fails to parse.
var ErrInvalidCron = errors.New("invalid cron expression")

// Default schedules for the three fixed-interval jobs (SPEC_FULL §4.20).
const (
	SessionSweepSchedule = "@every 30s"
	OAuthSweepSchedule   = "@every 60s"
	StreamStatsSchedule  = "@every 5m"
)

// Sweeper drives the three periodic background jobs this server runs:
// session idle-TTL reclamation, OAuth authorization-code/refresh-token
// expiry sweep, and SSE ring diagnostics logging. Grounded on the
// teacher's schedule package (kept: cron parsing built on
// github.com/robfig/cron/v3) repurposed from user-authored agent-prompt
// schedules to these fixed internal intervals.
type Sweeper struct {
	cron *cron.Cron

	sessions *session.Manager
	oauth    *oauth.Store
}

// NewSweeper builds a Sweeper bound to the server's session manager and
// OAuth store. Call Start to begin running jobs; call Stop (or register
// Stop with a shutdown.Manager) to end them.
func NewSweeper(sessions *session.Manager, oauthStore *oauth.Store) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		sessions: sessions,
		oauth:    oauthStore,
	}
}

// Start schedules and begins running the three jobs, validating each
// schedule constant through ValidateCron before handing it to the
// underlying cron.Cron so a typo in a schedule constant fails loudly at
// startup instead of silently never firing.
func (s *Sweeper) Start() error {
	for _, sched := range []string{SessionSweepSchedule, OAuthSweepSchedule, StreamStatsSchedule} {
		if err := ValidateCron(sched); err != nil {
			return fmt.Errorf("sweep: schedule %q: %w", sched, err)
		}
	}

	if _, err := s.cron.AddFunc(SessionSweepSchedule, s.sweepSessions); err != nil {
		return err
	}
	if s.oauth != nil {
		if _, err := s.cron.AddFunc(OAuthSweepSchedule, s.oauth.Sweep); err != nil {
			return err
		}
	}
	if _, err := s.cron.AddFunc(StreamStatsSchedule, s.logStreamStats); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop ends the cron scheduler, waiting for any in-flight job to finish.
// It takes no ctx, since robfig/cron's Stop() has no deadline parameter;
// callers registering it with a shutdown.Manager wrap it in a
// func(ctx context.Context) error closure. Its wait is short (jobs here
// are all non-blocking).
func (s *Sweeper) Stop() error {
	<-s.cron.Stop().Done()
	return nil
}

func (s *Sweeper) sweepSessions() {
	if s.sessions == nil {
		return
	}
	if ids := s.sessions.SweepIdle(); len(ids) > 0 {
		logger.Info("session sweep reclaimed %d idle session(s)", len(ids))
	}
}

func (s *Sweeper) logStreamStats() {
	if s.sessions == nil {
		return
	}
	for _, sess := range s.sessions.Snapshot() {
		if sess.Stream == nil {
			continue
		}
		stats := sess.Stream.Stats()
		logger.Info("sse stream %s: size=%d/%d dropped=%d last_index=%d",
			stats.SessionID, stats.CurrentSize, stats.MaxSize, stats.DroppedEvents, stats.LastIndex)
	}
}
