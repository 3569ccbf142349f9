package parties

import (
	"sync"
	"time"

	"github.com/CytonicMC/Cyrene/scheduler"
	"github.com/google/uuid"
)

// pendingInvite identifies one outstanding invitation. The expiry
// callback compares the map entry against its own pendingInvite so a
// superseded timer that slipped past Stop can never act on a newer
// invitation.
type pendingInvite struct {
	timer scheduler.Timer
}

// TimedInvitationManager tracks a single party's pending invitations
// and their expiry timers. Each party owns exactly one manager with the
// same lifetime; invitations are created through Party.Invite so their
// installation is serialized with the party's membership changes.
//
// The manager's mutex guards only the invitation table. It is never
// held while calling into the party, and the party may call install,
// RemoveInvitation and CancelAllOutgoingInvitations while holding its
// own lock.
type TimedInvitationManager struct {
	mu          sync.Mutex
	invitations map[uuid.UUID]*pendingInvite

	scheduler scheduler.Scheduler
	presence  Presence
	notifier  Notifier
}

// NewTimedInvitationManager creates an invitation manager scheduling
// its expirations on the given scheduler.
func NewTimedInvitationManager(sched scheduler.Scheduler, presence Presence, notifier Notifier) *TimedInvitationManager {
	return &TimedInvitationManager{
		invitations: make(map[uuid.UUID]*pendingInvite),
		scheduler:   sched,
		presence:    presence,
		notifier:    notifier,
	}
}

// HasInvitation reports whether the player has a pending invitation.
func (m *TimedInvitationManager) HasInvitation(playerID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.invitations[playerID]
	return ok
}

// Invitations returns a snapshot of the invited player ids.
func (m *TimedInvitationManager) Invitations() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	invited := make([]uuid.UUID, 0, len(m.invitations))
	for playerID := range m.invitations {
		invited = append(invited, playerID)
	}
	return invited
}

// install records a pending invitation and schedules its expiry.
// Called by Party.Invite with the party's lock held; a pending
// invitation for the same player is replaced and its timer stopped.
func (m *TimedInvitationManager) install(party *Party, inviteeID uuid.UUID, expiry time.Duration,
	inviteeName string, ownerName string) {
	invite := &pendingInvite{}
	invite.timer = m.scheduler.ScheduleAfter(expiry, func() {
		m.expire(party, inviteeID, invite, inviteeName, ownerName)
	})

	m.mu.Lock()
	if old, pending := m.invitations[inviteeID]; pending {
		old.timer.Stop()
	}
	m.invitations[inviteeID] = invite
	m.mu.Unlock()
}

// RemoveInvitation cancels the player's pending invitation, reporting
// whether one existed. Called both when the invitee joins and on an
// explicit un-invite.
func (m *TimedInvitationManager) RemoveInvitation(playerID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	invite, ok := m.invitations[playerID]
	if !ok {
		return false
	}
	invite.timer.Stop()
	delete(m.invitations, playerID)
	return true
}

// CancelAllOutgoingInvitations stops every pending timer and clears the
// table. Safe to call with nothing pending.
func (m *TimedInvitationManager) CancelAllOutgoingInvitations() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for playerID, invite := range m.invitations {
		invite.timer.Stop()
		delete(m.invitations, playerID)
	}
}

// expire runs when an invitation's timer fires. The invitation record
// decides the race against a concurrent join: whichever side removes it
// first wins and the other is a no-op.
func (m *TimedInvitationManager) expire(party *Party, inviteeID uuid.UUID, invite *pendingInvite,
	inviteeName string, ownerName string) {
	m.mu.Lock()
	if m.invitations[inviteeID] != invite {
		m.mu.Unlock()
		return
	}
	delete(m.invitations, inviteeID)
	m.mu.Unlock()

	if party.HasMember(inviteeID) {
		return
	}

	party.Broadcast(NewMessage("party.invite.to.expired", inviteeName))

	if m.presence.IsOnline(inviteeID) {
		m.notifier.SendPrivate(inviteeID, NewMessage("party.invite.from.expired", ownerName))
	}
}
