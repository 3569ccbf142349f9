package parties

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ErrNotAMember is returned when an operation names a player that is
// not in the party and the caller was expected to have validated that.
var ErrNotAMember = errors.New("player is not a member of the party")

// Party is a group of players that play and chat together. All state
// lives in memory; a party exists only for as long as the service runs.
//
// Every mutation is serialized through the party's mutex, including
// invitation expiry callbacks, so no two mutators ever interleave on
// the same party. Different parties share nothing and mutate freely in
// parallel.
type Party struct {
	id uuid.UUID

	mu sync.Mutex

	members map[uuid.UUID]*PartyMember
	owner   *PartyMember

	settings *PartySettings

	// spies receive a copy of every broadcast without being members.
	spies []Audience

	// joinHandlers and leaveHandlers fire in registration order on
	// membership changes. Both lists are cleared once the party can no
	// longer sustain an owner.
	joinHandlers  []func(*PartyMember)
	leaveHandlers []func(*PartyMember)

	rand          *rand.Rand
	memberFactory MemberFactory
	invitations   *TimedInvitationManager
	presence      Presence
	notifier      Notifier
}

// NewParty creates a party owned by ownerID. The randomness source
// drives ownership succession and must not be shared across goroutines;
// the invitation manager is owned exclusively by this party.
func NewParty(rand *rand.Rand, ownerID uuid.UUID, settings *PartySettings, factory MemberFactory,
	invitations *TimedInvitationManager, presence Presence, notifier Notifier) *Party {
	p := &Party{
		id:            uuid.New(),
		members:       make(map[uuid.UUID]*PartyMember),
		settings:      settings,
		rand:          rand,
		memberFactory: factory,
		invitations:   invitations,
		presence:      presence,
		notifier:      notifier,
	}

	owner := factory(ownerID)
	p.members[ownerID] = owner
	p.owner = owner
	return p
}

// ID returns the party's process-unique identifier.
func (p *Party) ID() uuid.UUID {
	return p.id
}

// Invitations returns the party's invitation manager.
func (p *Party) Invitations() *TimedInvitationManager {
	return p.invitations
}

// OnJoin registers a handler invoked whenever a player joins. Handlers
// run synchronously with the party's lock held and must not call back
// into the party.
func (p *Party) OnJoin(handler func(*PartyMember)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joinHandlers = append(p.joinHandlers, handler)
}

// OnLeave registers a handler invoked whenever a member is removed,
// under the same constraints as OnJoin.
func (p *Party) OnLeave(handler func(*PartyMember)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaveHandlers = append(p.leaveHandlers, handler)
}

// AddMember adds a player to the party. It returns nil without side
// effects if the player is already a member. Joining consumes any
// pending invitation and ends any spying the player was doing on this
// party.
func (p *Party) AddMember(playerID uuid.UUID) *PartyMember {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.members[playerID]; ok {
		return nil
	}

	member := p.memberFactory(playerID)
	p.members[playerID] = member
	p.invitations.RemoveInvitation(playerID)
	p.removeSpyLocked(playerID)

	p.broadcastLocked(NewMessage("party.member.joined", p.nameLocked(playerID)))

	for _, handler := range p.joinHandlers {
		handler(member)
	}

	return member
}

// Invite invites a player to the party on behalf of inviterID. Nothing
// happens if the inviter is not a member or the party has no owner. The
// invitee gets a personalized message (the owner inviting directly
// reads differently from a member inviting on the owner's behalf), the
// party is told the invite went out, and an expiry timer starts.
// Re-inviting a player with a pending invitation replaces it and stops
// the old timer.
//
// The whole operation runs under the party's lock, so an invitation can
// never be installed into a party that concurrently lost its last
// owner: either the invite lands first and the succession failure
// cancels it, or the failure lands first and the invite sees no owner.
func (p *Party) Invite(inviteeID uuid.UUID, inviterID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.members[inviterID]; !ok {
		return
	}
	if p.owner == nil {
		return
	}

	seconds := p.settings.InviteExpirationSeconds()
	inviterName := p.nameLocked(inviterID)
	inviteeName := p.nameLocked(inviteeID)
	ownerName := p.nameLocked(p.owner.PlayerID)

	if p.presence.IsOnline(inviteeID) {
		if p.owner.PlayerID == inviterID {
			p.notifier.SendPrivate(inviteeID,
				NewMessage("party.invite.received.personal", inviterName, ownerName, seconds))
		} else {
			p.notifier.SendPrivate(inviteeID,
				NewMessage("party.invite.received.other", inviterName, ownerName, seconds))
		}
	}

	p.broadcastLocked(NewMessage("party.invite.created", inviterName, inviteeName, seconds))

	p.invitations.install(p, inviteeID, p.settings.InviteExpiration(), inviteeName, ownerName)
}

// RemoveMember removes a player from the party. forced distinguishes a
// kick from a voluntary leave in the announcements. Removing a
// non-member is a no-op. If the removed member owned the party, a new
// owner is chosen; if none can be, the party is defunct: all pending
// invitations are cancelled and the handler lists are cleared once the
// leave handlers for this removal have run.
func (p *Party) RemoveMember(playerID uuid.UUID, forced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed, ok := p.members[playerID]
	if !ok {
		return
	}
	delete(p.members, playerID)

	name := p.nameLocked(playerID)

	clearHandlers := false
	if p.owner == removed {
		p.chooseNewOwnerLocked()

		if p.owner != nil {
			p.broadcastLocked(NewMessage("party.transferred", name, p.nameLocked(p.owner.PlayerID)))
		} else {
			p.invitations.CancelAllOutgoingInvitations()
			clearHandlers = true
		}
	}

	if forced {
		p.broadcastLocked(NewMessage("party.member.removed.remaining", name))
		if p.presence.IsOnline(playerID) {
			p.notifier.SendPrivate(playerID, NewMessage("party.member.removed.leaver"))
		}
	} else {
		p.broadcastLocked(NewMessage("party.member.left.remaining", name))
		if p.presence.IsOnline(playerID) {
			p.notifier.SendPrivate(playerID, NewMessage("party.member.left.leaver"))
		}
	}

	for _, handler := range p.leaveHandlers {
		handler(removed)
	}

	if clearHandlers {
		p.joinHandlers = nil
		p.leaveHandlers = nil
	}
}

// KickOffline removes every member that is not currently connected and
// returns the removed players. Succession runs inline if the owner is
// swept. After the sweep every remaining online member gets a single
// summary message with a plural-aware translation key.
func (p *Party) KickOffline() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	kicked := make([]uuid.UUID, 0)
	clearHandlers := false

	for playerID, member := range p.members {
		if p.presence.IsOnline(playerID) {
			continue
		}

		if p.owner == member {
			p.chooseNewOwnerLocked()

			if p.owner != nil {
				p.broadcastLocked(NewMessage("party.kickoffline.newowner",
					p.nameLocked(playerID), p.nameLocked(p.owner.PlayerID)))
			} else {
				p.invitations.CancelAllOutgoingInvitations()
				clearHandlers = true
			}
		}

		delete(p.members, playerID)
		kicked = append(kicked, playerID)

		for _, handler := range p.leaveHandlers {
			handler(member)
		}
	}

	key := "party.kickoffline.kicked.other"
	if len(kicked) == 1 {
		key = "party.kickoffline.kicked.one"
	}
	count := strconv.Itoa(len(kicked))
	for playerID := range p.members {
		if p.presence.IsOnline(playerID) {
			p.notifier.SendPrivate(playerID, NewMessage(key, count))
		}
	}

	if clearHandlers {
		p.joinHandlers = nil
		p.leaveHandlers = nil
	}

	return kicked
}

// Disband dissolves the party and returns the players that were in it.
// The owner slot is emptied before any removal side effects run. A
// second call finds no members and returns an empty slice.
func (p *Party) Disband() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.owner = nil

	disbanded := NewMessage("party.disbanded")
	removed := make([]uuid.UUID, 0, len(p.members))

	for playerID, member := range p.members {
		if p.presence.IsOnline(playerID) {
			p.notifier.SendPrivate(playerID, disbanded)
		}

		delete(p.members, playerID)
		removed = append(removed, playerID)

		for _, handler := range p.leaveHandlers {
			handler(member)
		}
	}

	p.invitations.CancelAllOutgoingInvitations()
	p.joinHandlers = nil
	p.leaveHandlers = nil

	return removed
}

// Mute toggles party-wide mute and announces the new state.
func (p *Party) Mute() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.settings.Muted = !p.settings.Muted
	if p.settings.Muted {
		p.broadcastLocked(NewMessage("party.muted"))
	} else {
		p.broadcastLocked(NewMessage("party.unmuted"))
	}
}

// MutePlayer toggles a member's mute state and announces it. Targeting
// a non-member or the owner is a silent no-op.
func (p *Party) MutePlayer(playerID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.members[playerID]
	if !ok || member == p.owner {
		return
	}

	member.Muted = !member.Muted
	if member.Muted {
		p.broadcastLocked(NewMessage("party.member.muted", p.nameLocked(playerID)))
	} else {
		p.broadcastLocked(NewMessage("party.member.unmuted", p.nameLocked(playerID)))
	}
}

// TransferPartyToPlayer reassigns ownership to the given member. Unlike
// the silent no-ops elsewhere, transferring to a non-member fails with
// ErrNotAMember: callers are expected to have validated membership.
func (p *Party) TransferPartyToPlayer(playerID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.members[playerID]
	if !ok {
		return fmt.Errorf("transfer party to %s: %w", playerID, ErrNotAMember)
	}

	var fromName string
	if p.owner != nil {
		fromName = p.nameLocked(p.owner.PlayerID)
	}
	p.broadcastLocked(NewMessage("party.transferred", fromName, p.nameLocked(playerID)))
	p.owner = member
	return nil
}

// TogglePartyChat flips whether the player's normal chat is redirected
// into the party channel. It reports the new state and whether the
// player is a member.
func (p *Party) TogglePartyChat(playerID uuid.UUID) (inPartyChat bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, found := p.members[playerID]
	if !found {
		return false, false
	}
	member.InPartyChat = !member.InPartyChat
	return member.InPartyChat, true
}

// chooseNewOwnerLocked reassigns ownership after the current owner
// stops being a member. Connected members are preferred over offline
// ones; within a group the pick is uniformly random, favoring an active
// party over strict seniority.
func (p *Party) chooseNewOwnerLocked() {
	if len(p.members) == 0 {
		p.owner = nil
		return
	}

	candidates := make([]*PartyMember, 0, len(p.members))
	for _, member := range p.members {
		if member != p.owner {
			candidates = append(candidates, member)
		}
	}

	online := make([]*PartyMember, 0, len(candidates))
	for _, member := range candidates {
		if p.presence.IsOnline(member.PlayerID) {
			online = append(online, member)
		}
	}

	switch {
	case len(online) > 0:
		p.owner = online[p.rand.Intn(len(online))]
	case len(candidates) > 0:
		p.owner = candidates[p.rand.Intn(len(candidates))]
	default:
		p.owner = nil
	}
}

// Owner returns a copy of the owning member's record, if the party has
// an owner.
func (p *Party) Owner() (PartyMember, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.owner == nil {
		return PartyMember{}, false
	}
	return *p.owner, true
}

// IsOwner reports whether the player owns this party.
func (p *Party) IsOwner(playerID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner != nil && p.owner.PlayerID == playerID
}

// Member returns a copy of the player's membership record.
func (p *Party) Member(playerID uuid.UUID) (PartyMember, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.members[playerID]
	if !ok {
		return PartyMember{}, false
	}
	return *member, true
}

// Members returns a snapshot of all membership records.
func (p *Party) Members() []PartyMember {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := make([]PartyMember, 0, len(p.members))
	for _, member := range p.members {
		members = append(members, *member)
	}
	return members
}

// HasMember reports whether the player is in the party.
func (p *Party) HasMember(playerID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.members[playerID]
	return ok
}

// Size returns the current member count.
func (p *Party) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// Settings returns a copy of the party's settings.
func (p *Party) Settings() PartySettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.settings
}

// UpdateSettings applies a mutation to the settings under the party's
// lock.
func (p *Party) UpdateSettings(mutate func(*PartySettings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mutate(p.settings)
}

// AddSpy subscribes an audience to the party's broadcasts. A player
// already spying (or an identical audience) is not added twice, and a
// current member cannot spy on their own party.
func (p *Party) AddSpy(audience Audience) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pa, ok := audience.(*PlayerAudience); ok {
		if _, member := p.members[pa.PlayerID]; member {
			return
		}
	}
	for _, existing := range p.spies {
		if audiencesEqual(existing, audience) {
			return
		}
	}
	p.spies = append(p.spies, audience)
}

// RemoveSpy unsubscribes an audience. Unknown audiences are ignored.
func (p *Party) RemoveSpy(audience Audience) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.spies {
		if audiencesEqual(existing, audience) {
			p.spies = append(p.spies[:i], p.spies[i+1:]...)
			return
		}
	}
}

// IsSpying reports whether the player is in the spy list.
func (p *Party) IsSpying(playerID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.spies {
		if pa, ok := existing.(*PlayerAudience); ok && pa.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Broadcast sends a message to every online member and every spy.
func (p *Party) Broadcast(msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcastLocked(msg)
}

func (p *Party) broadcastLocked(msg Message) {
	for playerID := range p.members {
		if p.presence.IsOnline(playerID) {
			p.notifier.SendPrivate(playerID, msg)
		}
	}
	for _, spy := range p.spies {
		spy.SendMessage(msg)
	}
}

// removeSpyLocked drops a player from the spy list by identity. A spy
// who joins the party stops spying; membership and spying are mutually
// exclusive.
func (p *Party) removeSpyLocked(playerID uuid.UUID) {
	for i, existing := range p.spies {
		if pa, ok := existing.(*PlayerAudience); ok && pa.PlayerID == playerID {
			p.spies = append(p.spies[:i], p.spies[i+1:]...)
			return
		}
	}
}

func (p *Party) nameLocked(playerID uuid.UUID) string {
	return playerName(p.presence, playerID)
}
