package parties

import (
	"time"

	"github.com/CytonicMC/Cyrene/scheduler"
	"github.com/google/uuid"
)

// fakePresence is an in-test connectivity oracle.
type fakePresence struct {
	online map[uuid.UUID]string
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[uuid.UUID]string)}
}

func (p *fakePresence) connect(playerID uuid.UUID, username string) {
	p.online[playerID] = username
}

func (p *fakePresence) disconnect(playerID uuid.UUID) {
	delete(p.online, playerID)
}

func (p *fakePresence) IsOnline(playerID uuid.UUID) bool {
	_, ok := p.online[playerID]
	return ok
}

func (p *fakePresence) Username(playerID uuid.UUID) (string, bool) {
	username, ok := p.online[playerID]
	return username, ok
}

// recordingNotifier captures every private message by recipient.
type recordingNotifier struct {
	sent map[uuid.UUID][]Message
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[uuid.UUID][]Message)}
}

func (n *recordingNotifier) SendPrivate(playerID uuid.UUID, msg Message) {
	n.sent[playerID] = append(n.sent[playerID], msg)
}

func (n *recordingNotifier) keysFor(playerID uuid.UUID) []string {
	keys := make([]string, 0, len(n.sent[playerID]))
	for _, msg := range n.sent[playerID] {
		keys = append(keys, msg.Key)
	}
	return keys
}

func (n *recordingNotifier) received(playerID uuid.UUID, key string) int {
	count := 0
	for _, msg := range n.sent[playerID] {
		if msg.Key == key {
			count++
		}
	}
	return count
}

func (n *recordingNotifier) reset() {
	n.sent = make(map[uuid.UUID][]Message)
}

// fakeTimer is a manually fired timer handle.
type fakeTimer struct {
	delay   time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fire runs the callback unless the timer was stopped, mimicking a real
// timer coming due.
func (t *fakeTimer) fire() {
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

// forceFire runs the callback even if the timer was stopped, modelling
// a callback that was already in flight when Stop was called.
func (t *fakeTimer) forceFire() {
	t.f()
}

// fakeScheduler collects timers for manual firing.
type fakeScheduler struct {
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) ScheduleAfter(d time.Duration, f func()) scheduler.Timer {
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// recordingAudience is a plain spy audience that is not a player.
type recordingAudience struct {
	messages []Message
}

func (a *recordingAudience) SendMessage(msg Message) {
	a.messages = append(a.messages, msg)
}
