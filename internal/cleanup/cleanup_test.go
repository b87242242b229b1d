package cleanup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grovetools/lookout/pkg/models"
)

type fakeProber map[string]bool

func (p fakeProber) TTYAlive(tty string) bool { return p[tty] }

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func session(updatedAgo time.Duration) *models.Session {
	return &models.Session{
		SessionID: "s1",
		TTY:       "/dev/ttys001",
		Status:    models.StatusStopped,
		UpdatedAt: now.Add(-updatedAgo).Format(models.TimeFormat),
	}
}

func TestZeroTimeoutNeverRemovesByAge(t *testing.T) {
	sess := session(1000 * time.Hour)
	d := Evaluate(sess, Config{}, fakeProber{"/dev/ttys001": true}, now)
	assert.False(t, d.Remove)
}

func TestTimeoutRemovesIdleSessions(t *testing.T) {
	cfg := Config{Timeout: time.Hour}

	d := Evaluate(session(2*time.Hour), cfg, fakeProber{"/dev/ttys001": true}, now)
	assert.True(t, d.Remove)
	assert.Equal(t, ReasonTimeout, d.Reason)

	d = Evaluate(session(30*time.Minute), cfg, fakeProber{"/dev/ttys001": true}, now)
	assert.False(t, d.Remove)
}

func TestDeadTTYRemovesRegardlessOfAge(t *testing.T) {
	d := Evaluate(session(time.Second), Config{}, fakeProber{}, now)
	assert.True(t, d.Remove)
	assert.Equal(t, ReasonTTYClosed, d.Reason)
}

func TestSessionWithoutTTYSkipsLivenessCheck(t *testing.T) {
	sess := session(time.Second)
	sess.TTY = ""
	d := Evaluate(sess, Config{}, fakeProber{}, now)
	assert.False(t, d.Remove)
}

func TestUnparsableUpdatedAtFailsSafe(t *testing.T) {
	sess := session(0)
	sess.UpdatedAt = "not-a-timestamp"

	d := Evaluate(sess, Config{Timeout: time.Nanosecond}, fakeProber{}, now)
	assert.False(t, d.Remove, "bad data never removes a session")
	assert.NotEmpty(t, d.Warning)
}

func TestMultiplexerSessionsAreExempt(t *testing.T) {
	sess := session(1000 * time.Hour)
	sess.Source = models.SourceTmux

	d := Evaluate(sess, Config{Timeout: time.Hour}, fakeProber{}, now)
	assert.False(t, d.Remove)
	assert.Empty(t, d.Warning)
}

func TestExternalSessionsAreExempt(t *testing.T) {
	sess := session(1000 * time.Hour)
	sess.Agent = models.AgentExternal
	sess.TTY = ""

	d := Evaluate(sess, Config{Timeout: time.Hour}, fakeProber{}, now)
	assert.False(t, d.Remove)
}

func TestNilProberSkipsLivenessCheck(t *testing.T) {
	d := Evaluate(session(time.Second), Config{}, nil, now)
	assert.False(t, d.Remove)
}
