// Package cleanup decides which sessions are stale and must be removed.
// The evaluator only decides; removal and persistence are the caller's job.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/lookout/pkg/models"
	"github.com/grovetools/lookout/pkg/process"
)

// Reason explains a removal decision.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonTTYClosed Reason = "tty_closed"
)

// Config holds the evaluator's settings.
type Config struct {
	// Timeout removes sessions whose updated_at is older than this.
	// Zero disables the timeout check.
	Timeout time.Duration
}

// Prober answers whether a TTY device still maps to a live terminal.
type Prober interface {
	TTYAlive(tty string) bool
}

// Decision is the outcome for one session.
type Decision struct {
	Remove bool
	Reason Reason
	// Warning is set when the session is kept despite bad data, so the
	// caller can log it.
	Warning string
}

// Evaluate applies the stale-session rules to one session.
//
// Multiplexer-hosted sessions are exempt: pane presence governs their
// lifecycle via a separate sync pass. Externally synced sessions have no
// TTY or hook stream to probe and are likewise left alone. An unparsable
// updated_at never removes a session (fail safe).
func Evaluate(sess *models.Session, cfg Config, prober Prober, now time.Time) Decision {
	if sess.Source == models.SourceTmux {
		return Decision{}
	}
	if sess.Agent == models.AgentExternal {
		return Decision{}
	}

	updated, ok := sess.UpdatedTime()
	if !ok {
		return Decision{Warning: fmt.Sprintf("session %s has unparsable updated_at %q, keeping", sess.SessionID, sess.UpdatedAt)}
	}

	if cfg.Timeout > 0 && now.Sub(updated) > cfg.Timeout {
		return Decision{Remove: true, Reason: ReasonTimeout}
	}

	if sess.TTY != "" && prober != nil && !prober.TTYAlive(sess.TTY) {
		return Decision{Remove: true, Reason: ReasonTTYClosed}
	}

	return Decision{}
}

// snapshotProber answers liveness from a one-shot process-listing snapshot.
type snapshotProber struct {
	ttys map[string]bool
}

func (p *snapshotProber) TTYAlive(tty string) bool {
	return p.ttys[tty]
}

// NewProber captures the current set of live TTYs. Take a fresh prober per
// cleanup pass; the snapshot is not refreshed. If the process listing
// fails, the prober reports every TTY alive so nothing is removed on bad
// data.
func NewProber(ctx context.Context) Prober {
	ttys, err := process.LiveTTYs(ctx)
	if err != nil {
		return aliveProber{}
	}
	return &snapshotProber{ttys: ttys}
}

type aliveProber struct{}

func (aliveProber) TTYAlive(string) bool { return true }
