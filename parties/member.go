package parties

import "github.com/google/uuid"

// PartyMember is a single player's membership record within a party.
// Identity is the player UUID; the flags are per-party state and are
// discarded when the player leaves.
type PartyMember struct {
	PlayerID uuid.UUID

	// Muted silences the member in party chat. The party owner can
	// never be muted.
	Muted bool

	// InPartyChat redirects the member's normal chat into the party
	// channel.
	InPartyChat bool
}

// MemberFactory builds the membership record for a player entering a
// party, letting the owning system decorate new members with defaults.
type MemberFactory func(playerID uuid.UUID) *PartyMember

// NewPartyMember is the default MemberFactory.
func NewPartyMember(playerID uuid.UUID) *PartyMember {
	return &PartyMember{PlayerID: playerID}
}
