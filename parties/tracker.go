package parties

import (
	"sync"

	"github.com/google/uuid"
)

// PartyTracker is the reverse index from player to party, consulted
// before every party command. Lookups run concurrently; mutations are
// serialized. The tracker never controls a party's lifetime: it only
// observes membership through the party's join/leave handlers, so a
// party whose last member leaves simply disappears from the index.
type PartyTracker struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*Party
}

// NewPartyTracker creates an empty tracker.
func NewPartyTracker() *PartyTracker {
	return &PartyTracker{players: make(map[uuid.UUID]*Party)}
}

// GetPartyForPlayer returns the party the player is currently in, or
// nil.
func (t *PartyTracker) GetPartyForPlayer(playerID uuid.UUID) *Party {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.players[playerID]
}

// TrackParty indexes the party's current members and registers
// join/leave handlers so the index maintains itself for the rest of the
// party's life.
func (t *PartyTracker) TrackParty(party *Party) {
	members := party.Members()

	t.mu.Lock()
	for _, member := range members {
		t.players[member.PlayerID] = party
	}
	t.mu.Unlock()

	party.OnJoin(func(member *PartyMember) {
		t.mu.Lock()
		t.players[member.PlayerID] = party
		t.mu.Unlock()
	})
	party.OnLeave(func(member *PartyMember) {
		t.mu.Lock()
		if t.players[member.PlayerID] == party {
			delete(t.players, member.PlayerID)
		}
		t.mu.Unlock()
	})
}

// Parties returns a snapshot of every distinct tracked party.
func (t *PartyTracker) Parties() []*Party {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{}, len(t.players))
	parties := make([]*Party, 0, len(t.players))
	for _, party := range t.players {
		if _, ok := seen[party.ID()]; ok {
			continue
		}
		seen[party.ID()] = struct{}{}
		parties = append(parties, party)
	}
	return parties
}

// PendingInvitations counts the outstanding invitations across every
// tracked party. Expired invitations stop counting the moment their
// timer fires.
func (t *PartyTracker) PendingInvitations() int {
	pending := 0
	for _, party := range t.Parties() {
		pending += len(party.Invitations().Invitations())
	}
	return pending
}

// Size returns the number of players currently indexed.
func (t *PartyTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.players)
}
