// Package chat relays party chat messages, enforcing the party's mute
// rules before fanning a message out to members and spies.
package chat

import (
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/google/uuid"
)

// Verdict is the outcome of evaluating a party chat message.
type Verdict int

const (
	// Deliver fans the message out to the party and its spies.
	Deliver Verdict = iota
	// RejectNotInParty means the sender has no party to chat in.
	RejectNotInParty
	// RejectMemberMuted means the sender was muted by the owner.
	RejectMemberMuted
	// RejectPartyMuted means the whole party is muted and the sender
	// is not the owner. The owner always speaks through a party mute.
	RejectPartyMuted
)

// Evaluate decides whether a party chat message from the player may be
// delivered, returning the sender's party when there is one.
func Evaluate(tracker *parties.PartyTracker, playerID uuid.UUID) (*parties.Party, Verdict) {
	party := tracker.GetPartyForPlayer(playerID)
	if party == nil {
		return nil, RejectNotInParty
	}

	member, ok := party.Member(playerID)
	if !ok {
		return nil, RejectNotInParty
	}

	if member.Muted {
		return party, RejectMemberMuted
	}
	if party.Settings().Muted && !party.IsOwner(playerID) {
		return party, RejectPartyMuted
	}
	return party, Deliver
}
